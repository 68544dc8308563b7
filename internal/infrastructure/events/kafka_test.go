package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw, "crownshift.", zerolog.Nop())

	err := p.Publish(context.Background(), "payment.status_changed", "shp_1", map[string]string{"status": "paid"})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, "crownshift.payment.status_changed", msg.Topic)
	assert.Equal(t, "shp_1", string(msg.Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "paid", body["status"])
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&fakeWriter{err: errors.New("broker down")}, "", zerolog.Nop())
	assert.Error(t, p.Publish(context.Background(), "fleet.assigned", "k", struct{}{}))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{Log: zerolog.Nop()}.Publish(context.Background(), "t", "k", nil))
}

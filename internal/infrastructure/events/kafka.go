package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events as JSON messages. The topic is set per
// message, prefixed with TopicPrefix.
type KafkaPublisher struct {
	writer      Writer
	topicPrefix string
	log         zerolog.Logger
}

type Config struct {
	Brokers     []string
	TopicPrefix string
}

func NewKafkaPublisher(cfg Config, log zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(w, cfg.TopicPrefix, log)
}

func NewKafkaPublisherWithWriter(w Writer, topicPrefix string, log zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topicPrefix: topicPrefix, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}
	msg := kafka.Message{
		Topic: p.topicPrefix + topic,
		Key:   []byte(key),
		Value: b,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("topic", msg.Topic).Str("key", key).Msg("kafka write failed")
		return fmt.Errorf("publish %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct {
	Log zerolog.Logger
}

func (n NopPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	n.Log.Debug().Str("topic", topic).Str("key", key).Msg("event dropped, no brokers configured")
	return nil
}

func (NopPublisher) Close() error { return nil }

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, Ping(client)(context.Background()))

	mr.Close()
	assert.Error(t, Ping(client)(context.Background()))
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestOptionsDefaults(t *testing.T) {
	o := options(Config{Addr: "localhost:6379"})
	assert.Equal(t, defaultTimeout, o.DialTimeout)
	assert.Equal(t, defaultTimeout, o.ReadTimeout)
	assert.Equal(t, defaultPoolSize, o.PoolSize)

	o = options(Config{Addr: "localhost:6379", Timeout: time.Second, PoolSize: 5})
	assert.Equal(t, time.Second, o.WriteTimeout)
	assert.Equal(t, 5, o.PoolSize)
}

package clients

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisConfig{Addr: mr.Addr(), Timeout: time.Second, Prefix: "test_"})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, mr
}

func TestRedisClientPrefixesKeys(t *testing.T) {
	client, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "greeting", "hello", time.Minute))
	raw, err := mr.Get("test_greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", raw)

	got, err := client.Get(ctx, "greeting")
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	_, err = client.Get(ctx, "missing")
	require.True(t, IsMiss(err))
}

func TestRedisClientCountersAndSets(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	v, err := client.Incr(ctx, "version")
	require.NoError(t, err)
	require.EqualValues(t, 1, v)

	require.NoError(t, client.SAdd(ctx, "ids", "a", "b"))
	require.NoError(t, client.SRem(ctx, "ids", "a"))
	members, err := client.SMembers(ctx, "ids")
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, members)
}

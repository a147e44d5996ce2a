package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type report struct {
	Name     string `json:"name"`
	Attended int    `json:"attended"`
}

func TestRedisRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	c := NewRedis(client, "wedding")
	ctx := context.Background()

	var got report
	require.ErrorIs(t, c.GetJSON(ctx, "capacity", &got), ErrMiss)

	require.NoError(t, c.SetJSON(ctx, "capacity", report{Name: "Boat", Attended: 4}, time.Minute))
	require.True(t, mr.Exists("wedding:capacity"))

	require.NoError(t, c.GetJSON(ctx, "capacity", &got))
	require.Equal(t, report{Name: "Boat", Attended: 4}, got)

	mr.FastForward(2 * time.Minute)
	require.ErrorIs(t, c.GetJSON(ctx, "capacity", &got), ErrMiss)
}

func TestRedisDelete(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	c := NewRedis(client, "")
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "a", 1, 0))
	require.NoError(t, c.SetJSON(ctx, "b", 2, 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	require.False(t, mr.Exists("a"))
	require.False(t, mr.Exists("b"))
	require.NoError(t, c.Delete(ctx))
}

func TestRedisDecodeFailure(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("wedding:bad", "not-json"))

	var got report
	err := NewRedis(client, "wedding").GetJSON(context.Background(), "bad", &got)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMiss)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var c Cache = Noop{}
	require.NoError(t, c.SetJSON(context.Background(), "k", 1, time.Second))
	var v int
	require.ErrorIs(t, c.GetJSON(context.Background(), "k", &v), ErrMiss)
}

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedisClient(context.Background(), "::bad")
	require.Error(t, err)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBestEffortLogsWhenRedisIsDown(t *testing.T) {
	t.Parallel()

	client, mr := setupTestRedis(t)
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewBestEffort(NewRedis(client, "wedding"), zap.New(core))
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, CapacityReportKey, report{Name: "Boat trip", Attended: 4}, time.Minute))
	require.Zero(t, logs.Len())

	mr.Close()

	require.NoError(t, c.Delete(ctx, CapacityReportKey))
	require.NoError(t, c.SetJSON(ctx, CapacityReportKey, report{Name: "Boat trip"}, time.Minute))

	var got report
	err := c.GetJSON(ctx, CapacityReportKey, &got)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrMiss)

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, "cache invalidation failed", entries[0].Message)
	require.Equal(t, []any{CapacityReportKey}, entries[0].ContextMap()["keys"])
	require.Equal(t, "cache write failed", entries[1].Message)
	require.Equal(t, "cache read failed", entries[2].Message)
}

func TestBestEffortMissIsQuiet(t *testing.T) {
	t.Parallel()

	client, _ := setupTestRedis(t)
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewBestEffort(NewRedis(client, ""), zap.New(core))

	var got report
	require.ErrorIs(t, c.GetJSON(context.Background(), "absent", &got), ErrMiss)
	require.Zero(t, logs.Len())
}

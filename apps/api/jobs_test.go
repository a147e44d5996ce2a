package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	rsvpsservice "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

type alertSourceFunc func(ctx context.Context, threshold float64) ([]rsvpsservice.CapacityAlert, error)

func (f alertSourceFunc) CapacityAlerts(ctx context.Context, threshold float64) ([]rsvpsservice.CapacityAlert, error) {
	return f(ctx, threshold)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestCapacityAlertJobPublishesAlerts(t *testing.T) {
	t.Parallel()

	activityID := uuid.New()
	source := alertSourceFunc(func(ctx context.Context, threshold float64) ([]rsvpsservice.CapacityAlert, error) {
		require.Equal(t, 0.8, threshold)
		audit, ok := requesttrace.FromContext(ctx)
		require.True(t, ok)
		require.Equal(t, requesttrace.ActorKindSystem, audit.ActorKind)
		return []rsvpsservice.CapacityAlert{{
			ActivityID:            activityID,
			ActivityName:          "Boat",
			Capacity:              10,
			AttendingCount:        10,
			UtilizationPercentage: 100,
			AlertLevel:            rsvpsservice.AlertFull,
		}}, nil
	})
	publisher := &recordingPublisher{}
	job := newCapacityAlertJob(source, publisher, 0.8, zaptest.NewLogger(t))
	job.now = func() time.Time { return time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC) }

	count, err := job.run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Len(t, publisher.events, 1)

	evt := publisher.events[0]
	require.Equal(t, events.TypeCapacityAlert, evt.Type)
	require.Equal(t, activityID, evt.EntityID)
	require.Equal(t, "system", *evt.ActorID)

	var payload rsvpsservice.CapacityAlert
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	require.Equal(t, rsvpsservice.AlertFull, payload.AlertLevel)
}

func TestCapacityAlertJobFailure(t *testing.T) {
	t.Parallel()

	source := alertSourceFunc(func(context.Context, float64) ([]rsvpsservice.CapacityAlert, error) {
		return nil, errors.New("database down")
	})
	publisher := &recordingPublisher{}
	job := newCapacityAlertJob(source, publisher, 0.9, zaptest.NewLogger(t))

	_, err := job.run(context.Background())
	require.Error(t, err)
	require.Empty(t, publisher.events)

	// Run only logs.
	job.Run()
}

func TestStartSchedulerRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	job := newCapacityAlertJob(alertSourceFunc(nil), &recordingPublisher{}, 0.9, zaptest.NewLogger(t))
	_, err := startScheduler("every once in a while", job, zaptest.NewLogger(t))
	require.Error(t, err)

	c, err := startScheduler("@every 1h", job, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}

package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	rsvpsservice "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

const capacityAlertTimeout = time.Minute

type capacityAlertSource interface {
	CapacityAlerts(ctx context.Context, threshold float64) ([]rsvpsservice.CapacityAlert, error)
}

// capacityAlertJob publishes a capacity.alert event for every activity at or above the threshold.
type capacityAlertJob struct {
	alerts    capacityAlertSource
	publisher events.Publisher
	threshold float64
	logger    *zap.Logger
	now       func() time.Time
}

func newCapacityAlertJob(alerts capacityAlertSource, publisher events.Publisher, threshold float64, logger *zap.Logger) *capacityAlertJob {
	return &capacityAlertJob{
		alerts:    alerts,
		publisher: publisher,
		threshold: threshold,
		logger:    logger,
		now:       time.Now,
	}
}

// Run satisfies cron.Job.
func (j *capacityAlertJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), capacityAlertTimeout)
	defer cancel()
	if _, err := j.run(ctx); err != nil {
		j.logger.Error("capacity alert job failed", zap.Error(err))
	}
}

func (j *capacityAlertJob) run(ctx context.Context) (int, error) {
	audit := requesttrace.System("capacity-alerts-" + uuid.NewString())
	ctx = requesttrace.IntoContext(ctx, audit)
	logger := j.logger.With(zap.String("request_id", audit.RequestID))

	alerts, err := j.alerts.CapacityAlerts(ctx, j.threshold)
	if err != nil {
		return 0, err
	}

	at := j.now().UTC()
	for _, alert := range alerts {
		logger.Warn("activity near capacity",
			zap.String("activity_id", alert.ActivityID.String()),
			zap.String("activity_name", alert.ActivityName),
			zap.String("alert_level", alert.AlertLevel),
			zap.Int("utilization_percentage", alert.UtilizationPercentage),
		)
		evt := events.New(events.TypeCapacityAlert, "activity", alert.ActivityID, at, audit.Actor(), alert)
		_ = j.publisher.Publish(ctx, evt)
	}
	logger.Info("capacity alert job finished", zap.Int("alerts", len(alerts)))
	return len(alerts), nil
}

// startScheduler registers the background jobs. An empty schedule leaves the scheduler without jobs.
func startScheduler(schedule string, job cron.Job, logger *zap.Logger) (*cron.Cron, error) {
	cronLogger := zapCronLogger{logger: logger.Named("cron")}
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if schedule != "" {
		if _, err := c.AddJob(schedule, job); err != nil {
			return nil, err
		}
		logger.Info("capacity alert job scheduled", zap.String("schedule", schedule))
	}
	c.Start()
	return c, nil
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	logger *zap.Logger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

package capacity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	rsvpsrepo "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/repo"
	rsvpsservice "github.com/zenGate-Global/wedding-admin/domains/rsvps/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/cache"
	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

type alertSource interface {
	CapacityAlerts(ctx context.Context, threshold float64) ([]rsvpsservice.CapacityAlert, error)
}

type sourceOpener func(ctx context.Context, databaseURL, schema string) (alertSource, func(), error)

// Command groups capacity checks that run against the database directly.
func Command() *cobra.Command {
	return newCommand(openAlertSource)
}

func newCommand(open sourceOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capacity",
		Short: "Inspect activity capacity",
	}
	cmd.AddCommand(alertsCommand(open))
	return cmd
}

func alertsCommand(open sourceOpener) *cobra.Command {
	var (
		databaseURL string
		schema      string
		threshold   float64
	)

	c := &cobra.Command{
		Use:   "alerts",
		Short: "Print published activities at or above the utilization threshold as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be in (0, 1], got %v", threshold)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = requesttrace.IntoContext(ctx, requesttrace.System("cli-capacity-"+uuid.NewString()))

			source, closeFn, err := open(ctx, databaseURL, schema)
			if err != nil {
				return err
			}
			defer closeFn()

			alerts, err := source.CapacityAlerts(ctx, threshold)
			if err != nil {
				return fmt.Errorf("capacity alerts: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(alerts)
		},
	}

	c.Flags().Float64Var(&threshold, "threshold", rsvpsservice.DefaultAlertThreshold, "utilization ratio that triggers an alert")
	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	c.Flags().StringVar(&schema, "schema", os.Getenv("DATABASE_SCHEMA"), "schema holding the tables")
	return c
}

func openAlertSource(ctx context.Context, databaseURL, schema string) (alertSource, func(), error) {
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:      databaseURL,
		Schema:          schema,
		ApplicationName: "wedding-admin-cli",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init pool: %w", err)
	}
	closeFn := func() { persistence.ClosePool(pool) }
	db := persistence.NewDB(pool)

	activityStore, err := persistence.NewActivityStore(db)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("init activity store: %w", err)
	}
	rsvpStore, err := persistence.NewRSVPStore(db)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("init rsvp store: %w", err)
	}

	svc := rsvpsservice.New(rsvpsrepo.NewPostgresRepository(rsvpStore, activityStore), events.Noop{}, cache.Noop{})
	return svc, closeFn, nil
}

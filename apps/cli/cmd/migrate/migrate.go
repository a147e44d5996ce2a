package migrate

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Command groups schema migration helpers over the embedded SQL migrations.
func Command() *cobra.Command {
	var cfg persistence.MigrationConfig

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	cmd.PersistentFlags().StringVar(&cfg.Schema, "schema", os.Getenv("DATABASE_SCHEMA"), "schema holding the tables (default public)")

	cmd.AddCommand(upCommand(&cfg), downCommand(&cfg), versionCommand(&cfg))
	return cmd
}

func upCommand(cfg *persistence.MigrationConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := persistence.MigrateUp(*cfg); err != nil {
				return err
			}
			return printVersion(cmd, *cfg)
		},
	}
}

func downCommand(cfg *persistence.MigrationConfig) *cobra.Command {
	var steps int

	c := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			if err := persistence.MigrateDown(*cfg, steps); err != nil {
				return err
			}
			return printVersion(cmd, *cfg)
		},
	}

	c.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back; 0 rolls back everything")
	return c
}

func versionCommand(cfg *persistence.MigrationConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd, *cfg)
		},
	}
}

func printVersion(cmd *cobra.Command, cfg persistence.MigrationConfig) error {
	version, dirty, err := persistence.MigrationVersion(cfg)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "version %d\n", version)
	return nil
}

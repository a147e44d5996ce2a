// Package slug exposes the slug engine used by pages, events and activities.
package slug

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
)

// Command groups slug helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slug",
		Short: "Generate and check URL slugs",
	}

	cmd.AddCommand(generateCommand(), checkCommand())
	return cmd
}

func generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <text>...",
		Short: "Print the slug generated from each argument",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taken []string
			for _, text := range args {
				base := persistence.GenerateSlug(text)
				if base == "" {
					return fmt.Errorf("%q: %w", text, persistence.ErrEmptySlug)
				}
				unique := persistence.MakeUniqueSlug(base, taken)
				taken = append(taken, unique)
				fmt.Fprintln(cmd.OutOrStdout(), unique)
			}
			return nil
		},
	}
}

func checkCommand() *cobra.Command {
	var (
		databaseURL string
		schema      string
		collection  string
	)

	c := &cobra.Command{
		Use:   "check <slug>",
		Short: "Validate a slug and optionally check it is free in a collection",
		Long: "Validate a slug. With --collection the slug is looked up in the database " +
			"and the first free candidate is printed when it is already taken.\n\n" +
			"Values starting with '-' must follow a -- separator: wedding-admin slug check -- -beach-",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := args[0]
			out := cmd.OutOrStdout()

			normalized, err := persistence.NormalizeSlug(value)
			if err != nil {
				return err
			}
			if !persistence.IsValidSlug(value) {
				fmt.Fprintf(out, "invalid: %q normalizes to %q\n", value, normalized)
			} else {
				fmt.Fprintf(out, "valid: %s\n", value)
			}

			if collection == "" {
				return nil
			}
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required with --collection")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			probe, closeFn, err := openProbe(ctx, databaseURL, schema, collection)
			if err != nil {
				return err
			}
			defer closeFn()

			free := persistence.EnsureUniqueSlug(ctx, probe, normalized, nil)
			if free == normalized {
				fmt.Fprintf(out, "available in %s\n", collection)
				return nil
			}
			fmt.Fprintf(out, "taken in %s; next free: %s\n", collection, free)
			return nil
		},
	}

	c.Flags().StringVar(&collection, "collection", "", "content-pages | events | activities")
	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	c.Flags().StringVar(&schema, "schema", os.Getenv("DATABASE_SCHEMA"), "schema holding the tables")
	return c
}

func openProbe(ctx context.Context, databaseURL, schema, collection string) (persistence.SlugProbe, func(), error) {
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

	var probe persistence.SlugProbe
	switch strings.ToLower(collection) {
	case "content-pages":
		probe, err = persistence.NewContentPageStore(db)
	case "events":
		probe, err = persistence.NewEventStore(db)
	case "activities":
		probe, err = persistence.NewActivityStore(db)
	default:
		err = fmt.Errorf("unknown collection %q", collection)
	}
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return probe, closeFn, nil
}

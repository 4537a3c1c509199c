package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "db",
		Aliases: []string{"database"},
		Short:   "Manage the incident database",
		Long:    "Create the schema, load reference data and check connectivity of the configured database.",
	}

	cmd.AddCommand(newDBMigrateCmd())
	cmd.AddCommand(newDBSeedCmd())
	cmd.AddCommand(newDBPingCmd())

	return cmd
}

// ---------- db migrate ----------

func newDBMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the codes, neighborhoods and incidents tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st storeOps) error {
				if err := st.Migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				tables, err := st.Tables(ctx)
				if err != nil {
					return fmt.Errorf("list tables: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%d tables)\n", len(tables))
				return nil
			})
		},
	}
}

// ---------- db seed ----------

func newDBSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the standard codes and neighborhoods",
		Long:  "Insert the standard incident codes and neighborhoods. Rows that already exist are left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st storeOps) error {
				added, err := st.Seed(ctx)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d reference rows\n", added)
				return nil
			})
		},
	}
}

// ---------- db ping ----------

func newDBPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured database is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st storeOps) error {
				start := time.Now()
				if err := st.Ping(ctx); err != nil {
					return fmt.Errorf("ping: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK: %s reachable (%s)\n", st.Driver(), time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// storeOps is the subset of *store.Store the db commands use.
type storeOps interface {
	Migrate(ctx context.Context) error
	Seed(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Tables(ctx context.Context) ([]string, error)
	Driver() string
}

// withStore opens the configured database, runs fn and closes it.
func withStore(fn func(ctx context.Context, st storeOps) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Logging, false)

	st, registry, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer registry.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return fn(ctx, st)
}

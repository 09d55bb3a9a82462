package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	blogdb "github.com/dministrator/parkes/examples/blog/db"
	"github.com/dministrator/parkes/internal/migrations"
	"github.com/dministrator/parkes/internal/orm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database tasks (migrate, rollback, status)",
	}
	cmd.PersistentFlags().String("dir", "", "migrations directory (defaults to the embedded blog migrations)")
	cmd.PersistentFlags().String("dsn", "", "sqlite DSN (defaults to database.dsn from the config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending migrations",
		RunE: withRunner(func(out io.Writer, r *migrations.Runner, cmd *cobra.Command) error {
			applied, err := r.ApplyAll(cmd.Context())
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "No pending migrations to apply.")
			}
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recent migration",
		RunE: withRunner(func(out io.Writer, r *migrations.Runner, cmd *cobra.Command) error {
			name, err := r.RollbackLast(cmd.Context())
			if errors.Is(err, migrations.ErrNoApplied) {
				fmt.Fprintln(out, "No applied migrations found; nothing to roll back.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "rolled back", name)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: withRunner(func(out io.Writer, r *migrations.Runner, cmd *cobra.Command) error {
			applied, err := r.Applied(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := r.Pending(cmd.Context())
			if err != nil {
				return err
			}
			printList(out, "Applied migrations:", applied)
			printList(out, "Pending migrations:", pending)
			return nil
		}),
	})
	return cmd
}

func printList(out io.Writer, title string, names []string) {
	fmt.Fprintln(out, title)
	if len(names) == 0 {
		fmt.Fprintln(out, " (none)")
		return
	}
	for _, n := range names {
		fmt.Fprintln(out, " -", n)
	}
}

// withRunner opens the database named by --dsn or the config and hands a
// Runner over the selected migrations to fn.
func withRunner(fn func(io.Writer, *migrations.Runner, *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		dsn, _ := cmd.Flags().GetString("dsn")
		if dsn == "" {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "sqlite" {
				return fmt.Errorf("database.driver is %q; pass --dsn or configure sqlite", cfg.Database.Driver)
			}
			dsn = cfg.Database.DSN
		}

		var fsys fs.FS = blogdb.Migrations()
		if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("migrations dir: %w", err)
			}
			fsys = os.DirFS(dir)
		}

		adapter, err := orm.Connect(dsn, orm.WithMaxOpenConns(1))
		if err != nil {
			return err
		}
		defer adapter.Close()
		return fn(cmd.OutOrStdout(), migrations.New(fsys, adapter.SQLDB), cmd)
	}
}

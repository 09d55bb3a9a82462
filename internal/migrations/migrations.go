// Package migrations runs timestamped SQL migrations read from an fs.FS, so
// the same runner serves an on-disk db/migrate directory (os.DirFS) and
// migrations embedded in a binary.
//
// Migration files follow the naming convention:
//
//	20260108120000_create_users.up.sql
//	20260108120000_create_users.down.sql
//
// Applied migrations are tracked in the parkes_migrations table.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
	table      = "parkes_migrations"
)

// ErrNoApplied is returned by RollbackLast when nothing has been applied.
var ErrNoApplied = errors.New("migrations: no applied migrations")

// Runner applies and rolls back the migrations found at the root of FS.
type Runner struct {
	FS fs.FS
	DB *sql.DB
}

// New returns a Runner over fsys and db.
func New(fsys fs.FS, db *sql.DB) *Runner {
	return &Runner{FS: fsys, DB: db}
}

// ApplyAll applies every pending up migration in ascending name order and
// returns the names it applied. Repeated runs are idempotent.
func (m *Runner) ApplyAll(ctx context.Context) ([]string, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, base := range pending {
		if err := m.exec(ctx, base+upSuffix, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, "INSERT INTO "+table+"(name) VALUES (?)", base)
			return err
		}); err != nil {
			return done, fmt.Errorf("apply %s: %w", base, err)
		}
		done = append(done, base)
	}
	return done, nil
}

// RollbackLast runs the down migration of the most recently applied
// migration and returns its name.
func (m *Runner) RollbackLast(ctx context.Context) (string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", ErrNoApplied
	}
	base := applied[len(applied)-1]
	if _, err := fs.Stat(m.FS, base+downSuffix); err != nil {
		return "", fmt.Errorf("down migration not found for %s: %w", base, err)
	}
	if err := m.exec(ctx, base+downSuffix, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE name = ?", base)
		return err
	}); err != nil {
		return "", fmt.Errorf("rollback %s: %w", base, err)
	}
	return base, nil
}

// Applied returns the names of applied migrations, oldest first. Names are
// timestamp prefixed, so name order is application order.
func (m *Runner) Applied(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.DB.QueryContext(ctx, "SELECT name FROM "+table+" ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Pending returns the up migrations not applied yet, in name order.
func (m *Runner) Pending(ctx context.Context) ([]string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, a := range applied {
		done[a] = true
	}
	ups, err := m.List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, base := range ups {
		if !done[base] {
			out = append(out, base)
		}
	}
	return out, nil
}

// List returns the base names of all up migrations, sorted.
func (m *Runner) List() ([]string, error) {
	entries, err := fs.ReadDir(m.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), upSuffix) {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), upSuffix))
	}
	sort.Strings(out)
	return out, nil
}

// exec runs the file and the bookkeeping statement in one transaction.
func (m *Runner) exec(ctx context.Context, name string, record func(*sql.Tx) error) error {
	b, err := fs.ReadFile(m.FS, name)
	if err != nil {
		return err
	}
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, string(b)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ensureTable creates the migrations tracking table if it does not exist.
func (m *Runner) ensureTable(ctx context.Context) error {
	if m.DB == nil {
		return errors.New("migrations: nil database")
	}
	_, err := m.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

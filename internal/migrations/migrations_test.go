package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "test.db"))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var cnt int
	if err := db.QueryRow("SELECT count(name) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	return cnt == 1
}

func TestApplyAndRollbackSQLite(t *testing.T) {
	migDir := filepath.Join(t.TempDir(), "db", "migrate")
	if err := os.MkdirAll(migDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	up := filepath.Join(migDir, "20260101000000_create_tests.up.sql")
	down := filepath.Join(migDir, "20260101000000_create_tests.down.sql")
	if err := os.WriteFile(up, []byte("CREATE TABLE tests (id INTEGER PRIMARY KEY);"), 0o644); err != nil {
		t.Fatalf("write up: %v", err)
	}
	if err := os.WriteFile(down, []byte("DROP TABLE IF EXISTS tests;"), 0o644); err != nil {
		t.Fatalf("write down: %v", err)
	}

	db := openDB(t)
	ctx := context.Background()
	runner := New(os.DirFS(migDir), db)

	applied, err := runner.ApplyAll(ctx)
	if err != nil {
		t.Fatalf("apply all: %v", err)
	}
	if len(applied) != 1 || applied[0] != "20260101000000_create_tests" {
		t.Fatalf("unexpected applied list %v", applied)
	}
	if !tableExists(t, db, "tests") {
		t.Fatalf("expected table tests to exist")
	}

	var mcnt int
	if err := db.QueryRow("SELECT count(1) FROM parkes_migrations").Scan(&mcnt); err != nil {
		t.Fatalf("query parkes_migrations: %v", err)
	}
	if mcnt != 1 {
		t.Fatalf("expected 1 applied migration, got %d", mcnt)
	}

	// re-run ApplyAll: idempotent, no duplicate records
	again, err := runner.ApplyAll(ctx)
	if err != nil {
		t.Fatalf("apply all second time: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected nothing applied on second run, got %v", again)
	}

	name, err := runner.RollbackLast(ctx)
	if err != nil {
		t.Fatalf("rollback last: %v", err)
	}
	if name != "20260101000000_create_tests" {
		t.Fatalf("unexpected rolled back name %s", name)
	}
	if tableExists(t, db, "tests") {
		t.Fatalf("expected table tests to be dropped after rollback")
	}
	if err := db.QueryRow("SELECT count(1) FROM parkes_migrations").Scan(&mcnt); err != nil {
		t.Fatalf("query parkes_migrations after rollback: %v", err)
	}
	if mcnt != 0 {
		t.Fatalf("expected 0 applied migrations after rollback, got %d", mcnt)
	}

	if _, err := runner.RollbackLast(ctx); !errors.Is(err, ErrNoApplied) {
		t.Fatalf("expected ErrNoApplied, got %v", err)
	}
}

func TestOrderingAndPending(t *testing.T) {
	fsys := fstest.MapFS{
		"20260102000000_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER PRIMARY KEY);")},
		"20260102000000_b.down.sql": {Data: []byte("DROP TABLE b;")},
		"20260101000000_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER PRIMARY KEY);")},
		"20260101000000_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"README.md":                 {Data: []byte("not a migration")},
	}
	db := openDB(t)
	ctx := context.Background()
	runner := New(fsys, db)

	list, err := runner.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(list, ",") != "20260101000000_a,20260102000000_b" {
		t.Fatalf("unexpected list %v", list)
	}

	pending, err := runner.Pending(ctx)
	if err != nil || len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %v (%v)", pending, err)
	}

	if _, err := runner.ApplyAll(ctx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	name, err := runner.RollbackLast(ctx)
	if err != nil || name != "20260102000000_b" {
		t.Fatalf("expected b rolled back first, got %s (%v)", name, err)
	}
	if !tableExists(t, db, "a") || tableExists(t, db, "b") {
		t.Fatalf("unexpected tables after rollback")
	}
	pending, _ = runner.Pending(ctx)
	if len(pending) != 1 || pending[0] != "20260102000000_b" {
		t.Fatalf("unexpected pending %v", pending)
	}
}

func TestFailedMigrationIsNotRecorded(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok (id INTEGER PRIMARY KEY);")},
		"20260102000000_broken.up.sql": {Data: []byte("CREATE TABLE (;")},
	}
	db := openDB(t)
	ctx := context.Background()
	runner := New(fsys, db)

	done, err := runner.ApplyAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "20260102000000_broken") {
		t.Fatalf("expected failure naming the broken migration, got %v", err)
	}
	if len(done) != 1 {
		t.Fatalf("expected the first migration to stay applied, got %v", done)
	}
	applied, _ := runner.Applied(ctx)
	if len(applied) != 1 || applied[0] != "20260101000000_ok" {
		t.Fatalf("unexpected applied %v", applied)
	}
}

func TestRollbackWithoutDownFile(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_only_up.up.sql": {Data: []byte("CREATE TABLE only_up (id INTEGER PRIMARY KEY);")},
	}
	runner := New(fsys, openDB(t))
	ctx := context.Background()
	if _, err := runner.ApplyAll(ctx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := runner.RollbackLast(ctx); err == nil || !strings.Contains(err.Error(), "down migration not found") {
		t.Fatalf("expected missing down error, got %v", err)
	}
}

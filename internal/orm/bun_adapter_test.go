package orm

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Basic CRUD test using bun on an in-memory sqlite.
func TestBunAdapterBasicCRUD(t *testing.T) {
	adapter, err := Connect("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer adapter.Close()

	type Author struct {
		ID        int64     `bun:"id,pk,autoincrement"`
		Name      string    `bun:"name"`
		CreatedAt time.Time `bun:"created_at"`
	}

	ctx := context.Background()

	// create table
	if _, err := adapter.DB.NewCreateTable().Model((*Author)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// insert
	u := &Author{Name: "Alice", CreatedAt: time.Now()}
	if _, err := adapter.DB.NewInsert().Model(u).Exec(ctx); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// select
	var got Author
	if err := adapter.DB.NewSelect().Model(&got).Where("name = ?", "Alice").Scan(ctx); err != nil {
		t.Fatalf("select: %v", err)
	}
	if got.Name != "Alice" {
		t.Fatalf("expected Alice, got %s", got.Name)
	}

	// update
	got.Name = "Bob"
	if _, err := adapter.DB.NewUpdate().Model(&got).WherePK().Exec(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}

	var after Author
	if err := adapter.DB.NewSelect().Model(&after).Where("id = ?", got.ID).Scan(ctx); err != nil {
		t.Fatalf("select after update: %v", err)
	}
	if after.Name != "Bob" {
		t.Fatalf("expected Bob, got %s", after.Name)
	}

	// delete
	if _, err := adapter.DB.NewDelete().Model(&after).WherePK().Exec(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var users []Author
	if err := adapter.DB.NewSelect().Model(&users).Scan(ctx); err != nil {
		t.Fatalf("select all: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("expected 0 rows, got %d", len(users))
	}
}

func TestQueryLoggerHook(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	adapter, err := Connect("file::memory:?cache=shared", WithQueryLogger(logger, 0), WithMaxOpenConns(1))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer adapter.Close()

	ctx := context.Background()
	if err := adapter.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := adapter.DB.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS hooked (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(buf.String(), "CREATE TABLE IF NOT EXISTS hooked") {
		t.Fatalf("expected query in log, got %s", buf.String())
	}

	buf.Reset()
	if _, err := adapter.DB.ExecContext(ctx, "SELECT * FROM missing_table"); err == nil {
		t.Fatalf("expected error for missing table")
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("expected failing query at warn level, got %s", buf.String())
	}
}

func TestNilAdapter(t *testing.T) {
	var b *BunAdapter
	if err := b.Close(); err != nil {
		t.Fatalf("close nil adapter: %v", err)
	}
	if err := b.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping on nil adapter to fail")
	}
}

// Package parkes: shared record fields.
//
// Model holds the fields most records share. It renders nothing by itself:
// records embed it and implement Record to choose what each projection
// exposes.
package parkes

import (
	"database/sql"
	"time"
)

// Model is a small embedding struct records can include to obtain standard
// fields.
type Model struct {
	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// Touch sets UpdatedAt to now, and CreatedAt too when it is unset.
func (m *Model) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Timestamps returns the shared fields as a map, for record projections.
func (m Model) Timestamps() map[string]any {
	return map[string]any{
		"id":         m.ID,
		"created_at": m.CreatedAt,
		"updated_at": m.UpdatedAt,
	}
}

// WithDB sets a *sql.DB on the App during construction.
func WithDB(db *sql.DB) Option {
	return func(a *App) { a.SetDB(db) }
}

// SetDB attaches a database connection to the App.
func (a *App) SetDB(db *sql.DB) {
	a.db = db
}

// DB returns the attached *sql.DB or nil if none was set.
func (a *App) DB() *sql.DB { return a.db }

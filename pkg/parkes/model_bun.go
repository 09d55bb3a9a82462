package parkes

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// ErrNoBun is returned by the bun helpers when the App has no adapter.
var ErrNoBun = errors.New("parkes: no bun database attached to the app")

// AutoMigrate creates any missing tables for models. The blog store runs
// SQL migrations instead; this suits tests and prototypes.
func AutoMigrate(ctx context.Context, app *App, models ...any) error {
	db := DB(app)
	if db == nil {
		return ErrNoBun
	}
	for _, m := range models {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

// RunInTx commits when fn returns nil and rolls back otherwise.
func RunInTx(ctx context.Context, app *App, fn func(ctx context.Context, tx bun.Tx) error) error {
	db := DB(app)
	if db == nil {
		return ErrNoBun
	}
	return db.RunInTx(ctx, nil, fn)
}

// DB returns the App's *bun.DB, or nil.
func DB(app *App) *bun.DB {
	if app == nil {
		return nil
	}
	return app.Bun()
}

// Bun returns the *bun.DB of the App serving the request, or nil.
func (c *Context) Bun() *bun.DB { return DB(c.App) }

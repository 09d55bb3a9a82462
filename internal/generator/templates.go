package generator

const controllerTmpl = `package controllers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/uptrace/bun"

	"github.com/dministrator/parkes/pkg/parkes"

	"{{.Module}}/app/models"
)

// {{.Controller}} serves the {{.Plural}} resource from a bun database.
type {{.Controller}} struct {
	DB *bun.DB
}

// New{{.Controller}} returns a controller for router.Resource("{{.Plural}}", ...).
func New{{.Controller}}(db *bun.DB) *{{.Controller}} {
	return &{{.Controller}}{DB: db}
}

func (c *{{.Controller}}) Index(ctx *parkes.Context, next parkes.Next) error {
	var items []*models.{{.Model}}
	if err := c.DB.NewSelect().Model(&items).Order("id ASC").Scan(ctx.R.Context()); err != nil {
		return err
	}
	ctx.SetCollection(parkes.Records(items), nil)
	return next()
}

func (c *{{.Controller}}) Show(ctx *parkes.Context, next parkes.Next) error {
	m, err := c.load(ctx)
	if err != nil {
		return err
	}
	ctx.SetRecord(m)
	return next()
}

func (c *{{.Controller}}) Create(ctx *parkes.Context, next parkes.Next) error {
	m := new(models.{{.Model}})
	if err := ctx.BindJSON(m); err != nil {
		return err
	}
	m.ID = 0
	m.Touch(time.Now())
	if _, err := c.DB.NewInsert().Model(m).Exec(ctx.R.Context()); err != nil {
		return err
	}
	ctx.Status(http.StatusCreated)
	ctx.SetRecord(m)
	return next()
}

func (c *{{.Controller}}) Update(ctx *parkes.Context, next parkes.Next) error {
	m, err := c.load(ctx)
	if err != nil {
		return err
	}
	id, created := m.ID, m.CreatedAt
	if err := ctx.BindJSON(m); err != nil {
		return err
	}
	m.ID, m.CreatedAt = id, created
	m.Touch(time.Now())
	if _, err := c.DB.NewUpdate().Model(m).WherePK().Exec(ctx.R.Context()); err != nil {
		return err
	}
	ctx.SetRecord(m)
	return next()
}

func (c *{{.Controller}}) Destroy(ctx *parkes.Context, next parkes.Next) error {
	m, err := c.load(ctx)
	if err != nil {
		return err
	}
	if _, err := c.DB.NewDelete().Model(m).WherePK().Exec(ctx.R.Context()); err != nil {
		return err
	}
	ctx.SetRecord(m)
	return next()
}

func (c *{{.Controller}}) load(ctx *parkes.Context) (*models.{{.Model}}, error) {
	id, err := ctx.ParamInt("{{.Param}}")
	if err != nil {
		return nil, err
	}
	m := new(models.{{.Model}})
	if err := c.DB.NewSelect().Model(m).Where("id = ?", id).Scan(ctx.R.Context()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, parkes.NotFound("{{.Singular}}", id)
		}
		return nil, err
	}
	return m, nil
}
`

const modelTmpl = `package models

import (
	"context"
{{- if .NeedTime}}
	"time"
{{- end}}

	"github.com/uptrace/bun"

	"github.com/dministrator/parkes/pkg/parkes"
)

// {{.Model}} is a {{.Singular}} record.
type {{.Model}} struct {
	bun.BaseModel ` + "`" + `bun:"table:{{.Table}}"` + "`" + `
	parkes.Model
{{range .Fields}}	{{.GoName}} {{.GoType}} ` + "`" + `bun:"{{.Name}}{{if .Nullable}},nullzero{{end}}" json:"{{.Name}}{{if .Nullable}},omitempty{{end}}"` + "`" + `
{{end}}}

// ToPublic renders the fields every client may see.
func (m *{{.Model}}) ToPublic(context.Context) (any, error) {
	out := m.Timestamps()
{{- range .Fields}}{{if not .Private}}
	out["{{.Name}}"] = m.{{.GoName}}
{{- end}}{{end}}
	return out, nil
}

// ToPrivate renders every field.
func (m *{{.Model}}) ToPrivate(context.Context) (any, error) {
	out := m.Timestamps()
{{- range .Fields}}
	out["{{.Name}}"] = m.{{.GoName}}
{{- end}}
	return out, nil
}
`

const migrationUpTmpl = `-- {{.Timestamp}} create {{.Table}}
CREATE TABLE IF NOT EXISTS {{.Table}} (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL{{.Columns}}
);
{{.ExtrasUp}}`

const migrationDownTmpl = `-- {{.Timestamp}} drop {{.Table}}
{{.ExtrasDown}}DROP TABLE IF EXISTS {{.Table}};
`

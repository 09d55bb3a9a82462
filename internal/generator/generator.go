// Package generator writes resource boilerplate for parkes applications: a
// bun-backed controller implementing the five resource actions, a record
// model with public and private projections, and an up/down SQL migration.
package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"golang.org/x/mod/modfile"
)

// GenOptions controls generator behavior used by CLI flags.
type GenOptions struct {
	Force          bool   // overwrite existing files
	SkipMigrations bool   // don't generate migration files
	Module         string // module path of the target project; read from go.mod when empty
	// Now stamps migration file names. Nil means time.Now.
	Now func() time.Time
}

func (o GenOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// generateFile renders tmpl with data and writes it to dstPath. It will
// create directories if necessary and will not overwrite existing files
// unless overwrite is true. Go files are gofmt'ed before writing.
func generateFile(tmplStr string, data any, dstPath string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(dstPath); err == nil {
			return fmt.Errorf("file exists: %s", dstPath)
		}
	}
	t, err := template.New(filepath.Base(dstPath)).Parse(tmplStr)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	out := buf.Bytes()
	if strings.HasSuffix(dstPath, ".go") {
		if out, err = format.Source(out); err != nil {
			return fmt.Errorf("format %s: %w", filepath.Base(dstPath), err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dstPath, out, 0o644)
}

// resourceData is the template input shared by every generated file.
type resourceData struct {
	Module     string
	Singular   string // post
	Plural     string // posts
	Param      string // path parameter of the item route
	Model      string // Post
	Controller string // PostsController
	Table      string // posts
	Fields     []FieldSpec
	NeedTime   bool
}

func newResourceData(projectRoot, name string, opts GenOptions, fields []string) (resourceData, error) {
	specs, err := ParseFields(fields)
	if err != nil {
		return resourceData{}, err
	}
	singular, plural := Names(name)
	d := resourceData{
		Module:     opts.Module,
		Singular:   singular,
		Plural:     plural,
		Param:      singular,
		Model:      GoName(singular),
		Controller: GoName(plural) + "Controller",
		Table:      TableName(name),
		Fields:     specs,
	}
	for _, fs := range specs {
		if strings.Contains(fs.GoType, "time.Time") {
			d.NeedTime = true
		}
	}
	if d.Module == "" {
		d.Module = ModulePath(projectRoot)
	}
	return d, nil
}

// ModulePath reads the module path from projectRoot/go.mod. It falls back
// to "app" when there is no readable go.mod.
func ModulePath(projectRoot string) string {
	b, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return "app"
	}
	if p := modfile.ModulePath(b); p != "" {
		return p
	}
	return "app"
}

// GenerateController creates a controller file at the target project path.
// name may be singular or plural (eg. "post" or "posts").
func GenerateController(projectRoot, name string, opts GenOptions) (string, error) {
	d, err := newResourceData(projectRoot, name, opts, nil)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(projectRoot, "app", "controllers", d.Plural+"_controller.go")
	return dst, generateFile(controllerTmpl, d, dst, opts.Force)
}

// GenerateModel creates a record model file under app/models.
func GenerateModel(projectRoot, name string, opts GenOptions, fields ...string) (string, error) {
	d, err := newResourceData(projectRoot, name, opts, fields)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(projectRoot, "app", "models", d.Singular+".go")
	return dst, generateFile(modelTmpl, d, dst, opts.Force)
}

// GenerateMigration writes the create-table up and down migrations under
// db/migrate and returns their paths.
func GenerateMigration(projectRoot, name string, opts GenOptions, fields ...string) ([]string, error) {
	d, err := newResourceData(projectRoot, name, opts, fields)
	if err != nil {
		return nil, err
	}

	var cols, extrasUp, extrasDown []string
	for _, fs := range d.Fields {
		cols = append(cols, "    "+fs.ColumnSQL())
		if fs.Index {
			idx := fmt.Sprintf("idx_%s_%s", d.Table, fs.Name)
			extrasUp = append(extrasUp, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s);\n", idx, d.Table, fs.Name))
			extrasDown = append(extrasDown, fmt.Sprintf("DROP INDEX IF EXISTS %s;\n", idx))
		}
	}
	columns := ""
	if len(cols) > 0 {
		columns = ",\n" + strings.Join(cols, ",\n")
	}

	ts := Timestamp(opts.now())
	migDir := filepath.Join(projectRoot, "db", "migrate")
	upPath := filepath.Join(migDir, fmt.Sprintf("%s_create_%s.up.sql", ts, d.Table))
	downPath := filepath.Join(migDir, fmt.Sprintf("%s_create_%s.down.sql", ts, d.Table))

	upData := map[string]string{"Timestamp": ts, "Table": d.Table, "Columns": columns, "ExtrasUp": strings.Join(extrasUp, "")}
	downData := map[string]string{"Timestamp": ts, "Table": d.Table, "ExtrasDown": strings.Join(extrasDown, "")}
	if err := generateFile(migrationUpTmpl, upData, upPath, opts.Force); err != nil {
		return nil, err
	}
	if err := generateFile(migrationDownTmpl, downData, downPath, opts.Force); err != nil {
		return []string{upPath}, err
	}
	return []string{upPath, downPath}, nil
}

// GenerateResource generates controller, model and (unless skipped)
// migrations, returning every path written.
func GenerateResource(projectRoot, name string, opts GenOptions, fields ...string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("resource name is empty")
	}
	var created []string
	cpath, err := GenerateController(projectRoot, name, opts)
	if err != nil {
		return created, err
	}
	created = append(created, cpath)

	mpath, err := GenerateModel(projectRoot, name, opts, fields...)
	if err != nil {
		return created, err
	}
	created = append(created, mpath)

	if !opts.SkipMigrations {
		paths, err := GenerateMigration(projectRoot, name, opts, fields...)
		created = append(created, paths...)
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

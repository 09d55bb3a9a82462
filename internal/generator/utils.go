package generator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Timestamp formats t in UTC as YYYYMMDDHHMMSS, the migration name prefix.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// Names returns the lower-case singular and plural forms of a resource name
// given in either form.
func Names(name string) (singular, plural string) {
	name = strings.ToLower(strings.TrimSpace(name))
	return inflection.Singular(name), inflection.Plural(name)
}

// TableName returns the plural table name for a resource.
func TableName(name string) string {
	_, plural := Names(name)
	return plural
}

// GoName turns a snake_case or lower-case name into an exported Go
// identifier: draft_notes becomes DraftNotes.
func GoName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, p := range parts {
		parts[i] = Title(p)
	}
	return strings.Join(parts, "")
}

// reservedColumns are the columns every generated model embeds.
var reservedColumns = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// FieldSpec describes a parsed field specification used by generators.
type FieldSpec struct {
	Name       string // original name (snake/camel as provided)
	GoName     string // Title-cased Go field name
	BaseType   string // raw type token, e.g. "string", "decimal(10,2)"
	GoType     string // resolved Go type (may be pointer for nullable)
	SQLType    string // resolved SQL type (e.g. TEXT, INTEGER, DECIMAL(10,2))
	Nullable   bool
	Default    *string
	Unique     bool
	Index      bool
	Private    bool // rendered only in the private projection
	References string
	Size       int
	Precision  int
	Scale      int
}

// ParseFields parses multiple field spec strings into FieldSpec objects.
// Expected forms:
//
//	name             (defaults to string)
//	name:type        (e.g. age:int)
//	name:type,opt1,opt2=val (e.g. price:decimal(10,2),default=0,nullable,index)
//
// The private option keeps a field out of the public projection.
func ParseFields(inputs []string) ([]FieldSpec, error) {
	out := make([]FieldSpec, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in) == "" {
			continue
		}
		fs, err := ParseFieldSpec(in)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

// ParseFieldSpec parses a single field specification string.
func ParseFieldSpec(input string) (FieldSpec, error) {
	var fs FieldSpec
	input = strings.TrimSpace(input)
	if input == "" {
		return fs, nil
	}
	// split name and rest
	parts := strings.SplitN(input, ":", 2)
	name := strings.TrimSpace(parts[0])
	fs.Name = name
	if name == "" {
		return fs, fmt.Errorf("field %q: empty name", input)
	}
	if reservedColumns[strings.ToLower(name)] {
		return fs, fmt.Errorf("field %q: %s is provided by parkes.Model", input, name)
	}
	fs.GoName = GoName(name)
	var rest string
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	// default base type
	base := "string"
	opts := ""
	if rest != "" {
		// split type and options by first comma
		if idx := optionsStart(rest); idx != -1 {
			base = strings.TrimSpace(rest[:idx])
			opts = strings.TrimSpace(rest[idx+1:])
		} else {
			base = strings.TrimSpace(rest)
		}
	}
	fs.BaseType = base

	if err := fs.resolveType(base); err != nil {
		return fs, fmt.Errorf("field %q: %w", input, err)
	}
	if opts != "" {
		for _, tok := range strings.Split(opts, ",") {
			if err := fs.applyOption(strings.TrimSpace(tok)); err != nil {
				return fs, fmt.Errorf("field %q: %w", input, err)
			}
		}
	}
	if fs.Nullable {
		fs.GoType = "*" + fs.GoType
	}
	return fs, nil
}

// scalarTypes maps plain type tokens to their Go and SQL types.
var scalarTypes = map[string][2]string{
	"string":    {"string", "TEXT"},
	"text":      {"string", "TEXT"},
	"int":       {"int", "INTEGER"},
	"integer":   {"int", "INTEGER"},
	"int64":     {"int64", "INTEGER"},
	"bool":      {"bool", "BOOLEAN"},
	"boolean":   {"bool", "BOOLEAN"},
	"float":     {"float64", "REAL"},
	"float64":   {"float64", "REAL"},
	"datetime":  {"time.Time", "DATETIME"},
	"time":      {"time.Time", "DATETIME"},
	"timestamp": {"time.Time", "DATETIME"},
}

// resolveType sets GoType and SQLType from a type token. Sized types take
// their arguments in parentheses: varchar(12), decimal(10,2).
func (fs *FieldSpec) resolveType(base string) error {
	low := strings.ToLower(base)
	if t, ok := scalarTypes[low]; ok {
		fs.GoType, fs.SQLType = t[0], t[1]
		return nil
	}

	name, args, err := typeArgs(low)
	if err != nil {
		return err
	}
	switch name {
	case "decimal", "numeric":
		fs.GoType, fs.SQLType = "float64", "DECIMAL"
		if len(args) > 2 {
			return fmt.Errorf("%s takes at most precision and scale", name)
		}
		if len(args) > 0 {
			fs.Precision = args[0]
			fs.SQLType = fmt.Sprintf("DECIMAL(%d)", fs.Precision)
		}
		if len(args) == 2 && args[1] > 0 {
			fs.Scale = args[1]
			fs.SQLType = fmt.Sprintf("DECIMAL(%d,%d)", fs.Precision, fs.Scale)
		}
	case "varchar", "char":
		fs.GoType, fs.SQLType = "string", strings.ToUpper(name)
		if len(args) > 1 {
			return fmt.Errorf("%s takes a single size", name)
		}
		if len(args) == 1 {
			fs.Size = args[0]
			fs.SQLType = fmt.Sprintf("VARCHAR(%d)", fs.Size)
		}
	default:
		return fmt.Errorf("unknown type %q", base)
	}
	return nil
}

// typeArgs splits "decimal(10,2)" into "decimal" and [10 2].
func typeArgs(tok string) (string, []int, error) {
	l := strings.Index(tok, "(")
	if l == -1 {
		return tok, nil, nil
	}
	if !strings.HasSuffix(tok, ")") {
		return "", nil, fmt.Errorf("unbalanced parentheses in %q", tok)
	}
	var args []int
	for _, a := range strings.Split(tok[l+1:len(tok)-1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil || n <= 0 {
			return "", nil, fmt.Errorf("invalid type argument %q in %q", a, tok)
		}
		args = append(args, n)
	}
	return tok[:l], args, nil
}

// applyOption records one comma-separated option.
func (fs *FieldSpec) applyOption(tok string) error {
	key, val, hasVal := strings.Cut(tok, "=")
	switch {
	case tok == "":
	case tok == "nullable":
		fs.Nullable = true
	case tok == "unique":
		fs.Unique = true
	case tok == "index":
		fs.Index = true
	case tok == "private":
		fs.Private = true
	case hasVal && key == "default":
		fs.Default = &val
	case hasVal && (key == "ref" || key == "references"):
		fs.References = val
	default:
		return fmt.Errorf("unknown option %q", tok)
	}
	return nil
}

// optionsStart returns the index of the comma ending the type token,
// skipping commas inside parentheses such as decimal(10,2).
func optionsStart(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Title title-cases s with Unicode word boundaries.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}

// ColumnSQL returns the column definition used in create-table migrations.
func (fs FieldSpec) ColumnSQL() string {
	col := fs.Name + " " + fs.SQLType
	if !fs.Nullable {
		col += " NOT NULL"
	}
	if fs.Default != nil {
		col += " DEFAULT " + *fs.Default
	}
	if fs.Unique {
		col += " UNIQUE"
	}
	if fs.References != "" {
		col += " REFERENCES " + fs.References
	}
	return col
}

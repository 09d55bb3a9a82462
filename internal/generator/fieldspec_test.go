package generator

import (
	"testing"
)

func TestParseFieldSpecSimple(t *testing.T) {
	fs, err := ParseFieldSpec("title:string")
	if err != nil {
		t.Fatal(err)
	}
	if fs.Name != "title" {
		t.Fatalf("expected name title, got %s", fs.Name)
	}
	if fs.GoName != "Title" {
		t.Fatalf("expected GoName Title, got %s", fs.GoName)
	}
	if fs.GoType != "string" {
		t.Fatalf("expected GoType string, got %s", fs.GoType)
	}
	if fs.SQLType != "TEXT" {
		t.Fatalf("expected SQLType TEXT, got %s", fs.SQLType)
	}
}

func TestParseFieldSpecNullableDefault(t *testing.T) {
	fs, err := ParseFieldSpec("price:decimal(10,2),default=0,nullable")
	if err != nil {
		t.Fatal(err)
	}
	if fs.Name != "price" {
		t.Fatalf("expected name price, got %s", fs.Name)
	}
	if fs.Nullable != true {
		t.Fatalf("expected nullable true")
	}
	if fs.Default == nil || *fs.Default != "0" {
		t.Fatalf("expected default 0, got %v", fs.Default)
	}
}

func TestParseFieldSpecOptions(t *testing.T) {
	fs, err := ParseFieldSpec("draft_notes:text,private,nullable,index")
	if err != nil {
		t.Fatal(err)
	}
	if fs.GoName != "DraftNotes" {
		t.Fatalf("expected GoName DraftNotes, got %s", fs.GoName)
	}
	if !fs.Private || !fs.Nullable || !fs.Index {
		t.Fatalf("expected private, nullable and index options, got %+v", fs)
	}
	if fs.GoType != "*string" {
		t.Fatalf("expected *string for nullable text, got %s", fs.GoType)
	}
	if got := fs.ColumnSQL(); got != "draft_notes TEXT" {
		t.Fatalf("unexpected column %q", got)
	}
}

func TestParseFieldSpecTypes(t *testing.T) {
	cases := []struct {
		in, goType, sqlType string
	}{
		{"age:int", "int", "INTEGER"},
		{"views:int64", "int64", "INTEGER"},
		{"published:bool", "bool", "BOOLEAN"},
		{"score:float", "float64", "REAL"},
		{"published_at:datetime", "time.Time", "DATETIME"},
		{"code:varchar(12)", "string", "VARCHAR(12)"},
		{"price:decimal(10,2)", "float64", "DECIMAL(10,2)"},
		{"name", "string", "TEXT"},
		{"total:numeric(8)", "float64", "DECIMAL(8)"},
		{"amount:decimal", "float64", "DECIMAL"},
		{"flag:char", "string", "CHAR"},
		{"at:timestamp,nullable", "*time.Time", "DATETIME"},
	}
	for _, tc := range cases {
		fs, err := ParseFieldSpec(tc.in)
		if err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if fs.GoType != tc.goType || fs.SQLType != tc.sqlType {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.in, fs.GoType, fs.SQLType, tc.goType, tc.sqlType)
		}
	}
}

func TestParseFieldSpecErrors(t *testing.T) {
	for _, in := range []string{
		":int",
		"id:int",
		"created_at:datetime",
		"blob:binary",
		"code:varchar(x)",
		"code:varchar(1,2)",
		"price:decimal(10,2",
		"title:string,sortable",
	} {
		if _, err := ParseFieldSpec(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestColumnSQL(t *testing.T) {
	fs, err := ParseFieldSpec("user_id:int64,ref=users(id),unique,default=0")
	if err != nil {
		t.Fatal(err)
	}
	want := "user_id INTEGER NOT NULL DEFAULT 0 UNIQUE REFERENCES users(id)"
	if got := fs.ColumnSQL(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNames(t *testing.T) {
	cases := map[string][2]string{
		"post":   {"post", "posts"},
		"Posts":  {"post", "posts"},
		"person": {"person", "people"},
		"people": {"person", "people"},
	}
	for in, want := range cases {
		s, p := Names(in)
		if s != want[0] || p != want[1] {
			t.Fatalf("Names(%s) = %s, %s; want %v", in, s, p, want)
		}
	}
	if GoName("blog_post") != "BlogPost" {
		t.Fatalf("unexpected GoName %s", GoName("blog_post"))
	}
}

package parkes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testEngines runs resource tests against every Engine implementation.
var testEngines = map[string]func() Engine{
	"internal": DefaultEngine,
	"chi":      ChiEngine,
}

// fakeRecord renders fixed public and private values, optionally after a
// delay or with an error.
type fakeRecord struct {
	public  map[string]any
	private map[string]any
	delay   time.Duration
	err     error
}

func (f *fakeRecord) render(ctx context.Context, v map[string]any) (any, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return v, nil
}

func (f *fakeRecord) ToPublic(ctx context.Context) (any, error)  { return f.render(ctx, f.public) }
func (f *fakeRecord) ToPrivate(ctx context.Context) (any, error) { return f.render(ctx, f.private) }

// echoRecord describes the request that produced it, tagged with the
// projection used. It mirrors what a controller would report back.
type echoRecord struct {
	Action   string            `json:"action"`
	Name     string            `json:"name"`
	Path     string            `json:"path"`
	Params   map[string]string `json:"params"`
	Rendered string            `json:"presentation"`
}

func (e echoRecord) ToPublic(context.Context) (any, error) {
	e.Rendered = "public"
	return e, nil
}

func (e echoRecord) ToPrivate(context.Context) (any, error) {
	e.Rendered = "private"
	return e, nil
}

// mockController implements the given actions; each stores an echoRecord
// listing the path params named in params.
func mockController(name string, params []string, actions ...Action) ActionMap {
	if len(actions) == 0 {
		actions = AllActions
	}
	m := ActionMap{}
	for _, a := range actions {
		m[a] = func(c *Context, next Next) error {
			rec := echoRecord{Action: a.String(), Name: name, Path: c.R.URL.Path, Params: map[string]string{}}
			for _, p := range params {
				rec.Params[p] = c.Param(p)
			}
			if a == Index {
				c.SetCollection([]Record{rec}, map[string]any{"pagination": map[string]any{"page": 1}})
			} else {
				c.SetRecord(rec)
			}
			return next()
		}
	}
	return m
}

// indexer implements only Index.
type indexer struct{}

func (indexer) Index(c *Context, next Next) error {
	c.SetCollection(nil, nil)
	return next()
}

// fullController implements all five capability interfaces.
type fullController struct{ calls []string }

func (f *fullController) record(c *Context, a string, next Next) error {
	f.calls = append(f.calls, a)
	c.SetRecord(echoRecord{Action: a})
	return next()
}

func (f *fullController) Index(c *Context, next Next) error {
	f.calls = append(f.calls, "index")
	c.SetCollection([]Record{echoRecord{Action: "index"}}, nil)
	return next()
}
func (f *fullController) Show(c *Context, next Next) error    { return f.record(c, "show", next) }
func (f *fullController) Create(c *Context, next Next) error  { return f.record(c, "create", next) }
func (f *fullController) Update(c *Context, next Next) error  { return f.record(c, "update", next) }
func (f *fullController) Destroy(c *Context, next Next) error { return f.record(c, "destroy", next) }

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

type echoBody struct {
	Data       echoRecord     `json:"data"`
	Pagination map[string]any `json:"pagination"`
}

type echoListBody struct {
	Data       []echoRecord   `json:"data"`
	Pagination map[string]any `json:"pagination"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func noop() error { return nil }

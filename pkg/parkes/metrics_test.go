package parkes

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := NewRouter(Options{Metrics: m})
	r.Resource("users", mockController("users", nil), Nested(func(r *Router) {
		r.Resource("posts", mockController("posts", nil))
	}))

	do(t, r, "GET", "/users/1")
	do(t, r, "GET", "/users/1")
	do(t, r, "GET", "/users/1/posts")
	do(t, r, "GET", "/nowhere")

	show := m.RequestsTotal.WithLabelValues("GET", "/users/:user", "show", "200")
	if got := testutil.ToFloat64(show); got != 2 {
		t.Fatalf("expected 2 show requests, got %v", got)
	}
	nested := m.RequestsTotal.WithLabelValues("GET", "/users/:user/posts", "index", "200")
	if got := testutil.ToFloat64(nested); got != 1 {
		t.Fatalf("expected nested route label, got %v", got)
	}
	missing := m.RequestsTotal.WithLabelValues("GET", "unmatched", "", "404")
	if got := testutil.ToFloat64(missing); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
	if n := testutil.CollectAndCount(m.RequestDuration); n != 3 {
		t.Fatalf("expected 3 duration series, got %d", n)
	}
}

func TestMetricsRecordErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := NewRouter(Options{Metrics: m})
	r.Resource("users", ActionMap{
		Show: func(c *Context, next Next) error { return NotFound("user", 1) },
	}, Actions(Show))

	if rr := do(t, r, "GET", "/users/1"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	c := m.RequestsTotal.WithLabelValues("GET", "/users/:user", "show", "404")
	if got := testutil.ToFloat64(c); got != 1 {
		t.Fatalf("expected error status label, got %v", got)
	}
}

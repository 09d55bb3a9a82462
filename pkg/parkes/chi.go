package parkes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// chiEngine adapts a chi.Mux to Engine, translating :param segments to chi's
// {param} form.
type chiEngine struct {
	mux *chi.Mux
}

// ChiEngine returns an Engine backed by go-chi. Use it as Options.Engine.
func ChiEngine() Engine {
	return &chiEngine{mux: chi.NewRouter()}
}

func (e *chiEngine) Handle(method, pattern string, h http.Handler) {
	e.mux.Method(method, chiPattern(pattern), h)
}

// Mount routes everything below pattern to h. chi's own Mount also claims
// the bare prefix for every method, which would shadow the parent's item
// routes, so the wildcard is registered directly and the remaining path is
// handed down the way chi's mount handler does.
func (e *chiEngine) Mount(pattern string, h http.Handler) {
	e.mux.Handle(chiPattern(pattern)+"/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		rctx.RoutePath = "/" + rctx.URLParam("*")
		h.ServeHTTP(w, r)
	}))
}

func (e *chiEngine) PathParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

func (e *chiEngine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.mux.ServeHTTP(w, r)
}

func chiPattern(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = "{" + strings.TrimPrefix(s, ":") + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Package parkes: resource router.
//
// Router turns resource declarations into routes on a host Engine. It holds
// only the narrow capability it needs from the engine (register a handler,
// mount a sub-handler, read a path parameter), so any engine exposing those
// three operations can serve a resource tree. Two are provided: the built-in
// internal/router engine (the default) and ChiEngine.
package parkes

import (
	"net/http"

	"github.com/rs/zerolog"

	routerpkg "github.com/dministrator/parkes/internal/router"
)

// DefaultPoweredBy is the X-Powered-By value stamped by top-level routers.
const DefaultPoweredBy = "Parkes"

// Engine is the routing capability a Router registers its routes on.
// Patterns use colon-prefixed parameters (/users/:user).
type Engine interface {
	Handle(method, pattern string, h http.Handler)
	Mount(pattern string, h http.Handler)
	PathParam(r *http.Request, name string) string
	http.Handler
}

// DefaultEngine returns the built-in segment-matching engine.
func DefaultEngine() Engine { return routerpkg.New() }

// Options configures a Router. It is fixed at construction and copied into
// nested routers, never modified afterwards.
type Options struct {
	// Nested marks a router created for a nested declaration. Nested
	// routers install no router-level handlers.
	Nested bool
	// InParent marks the router receiving a parent's nested declarations;
	// its resources default to index and create.
	InParent bool
	// NoHeaders suppresses the X-Powered-By header.
	NoHeaders bool
	// PoweredBy overrides the X-Powered-By value.
	PoweredBy string
	// Engine builds the host engine for this router and its nested routers.
	// Nil means DefaultEngine.
	Engine func() Engine
	// Logger receives request-time error logs when no App is attached.
	Logger zerolog.Logger
	// Metrics, when set, instruments top-level routers.
	Metrics *Metrics
}

// child derives the options for a router receiving nested declarations.
func (o Options) child() Options {
	return Options{
		Nested:    true,
		InParent:  true,
		NoHeaders: o.NoHeaders,
		PoweredBy: o.PoweredBy,
		Engine:    o.Engine,
		Logger:    o.Logger,
	}
}

// RouteDescriptor describes one registered route. Path is relative to the
// top-level router, with nested prefixes applied.
type RouteDescriptor struct {
	Method   string
	Path     string
	Action   Action
	Resource string
	// Handler is the controller action (or the first raw handler).
	Handler Handler
	// Presenter is the presentation handler; nil for raw routes.
	Presenter Handler
}

// tableEntry keeps route declarations and nested routers in declaration order.
type tableEntry struct {
	route *RouteDescriptor
	child *Router
}

// Router declares resources and plain routes on an Engine.
type Router struct {
	opts   Options
	engine Engine
	prefix string
	uses   []Handler
	table  []tableEntry
}

// NewRouter constructs a top-level Router. Unless opts.Nested or
// opts.NoHeaders is set, responses carry an X-Powered-By header.
func NewRouter(opts Options) *Router {
	return newRouter(opts, "")
}

func newRouter(opts Options, prefix string) *Router {
	newEngine := opts.Engine
	if newEngine == nil {
		newEngine = DefaultEngine
	}
	r := &Router{opts: opts, engine: newEngine(), prefix: prefix}
	if !opts.Nested && opts.Metrics != nil {
		r.uses = append(r.uses, opts.Metrics.Handler())
	}
	if !(opts.Nested || opts.NoHeaders) {
		name := opts.PoweredBy
		if name == "" {
			name = DefaultPoweredBy
		}
		r.uses = append(r.uses, PoweredBy(name))
	}
	return r
}

// Options returns the router's configuration.
func (r *Router) Options() Options { return r.opts }

// Use appends router-level handlers. They run for every request reaching
// this router, before route dispatch.
func (r *Router) Use(hs ...Handler) *Router {
	for _, h := range hs {
		if h == nil {
			panic(configErrorf("", "nil handler passed to Use"))
		}
	}
	r.uses = append(r.uses, hs...)
	return r
}

// Handle registers a plain handler chain for method and pattern.
func (r *Router) Handle(method, pattern string, hs ...Handler) *Router {
	if len(hs) == 0 {
		panic(configErrorf("", "no handlers for %s %s", method, pattern))
	}
	for _, h := range hs {
		if h == nil {
			panic(configErrorf("", "nil handler for %s %s", method, pattern))
		}
	}
	desc := &RouteDescriptor{Method: method, Path: r.prefix + pattern, Handler: hs[0]}
	r.register(method, pattern, desc, hs)
	return r
}

// convenience methods
func (r *Router) Get(p string, hs ...Handler) *Router    { return r.Handle(http.MethodGet, p, hs...) }
func (r *Router) Post(p string, hs ...Handler) *Router   { return r.Handle(http.MethodPost, p, hs...) }
func (r *Router) Put(p string, hs ...Handler) *Router    { return r.Handle(http.MethodPut, p, hs...) }
func (r *Router) Patch(p string, hs ...Handler) *Router  { return r.Handle(http.MethodPatch, p, hs...) }
func (r *Router) Delete(p string, hs ...Handler) *Router { return r.Handle(http.MethodDelete, p, hs...) }

// register records desc and hands the chain to the engine.
func (r *Router) register(method, pattern string, desc *RouteDescriptor, hs []Handler) {
	r.table = append(r.table, tableEntry{route: desc})
	r.engine.Handle(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		serve(w, req, r.opts.Logger, func(c *Context) {
			c.params = r.engine
			c.route = desc
		}, hs, nil)
	}))
}

// mount serves child under pattern.
func (r *Router) mount(pattern string, child *Router) {
	r.table = append(r.table, tableEntry{child: child})
	r.engine.Mount(pattern, child)
}

// Routes returns every route reachable through r, nested ones included, in
// declaration order.
func (r *Router) Routes() []RouteDescriptor {
	var out []RouteDescriptor
	for _, e := range r.table {
		if e.route != nil {
			out = append(out, *e.route)
			continue
		}
		out = append(out, e.child.Routes()...)
	}
	return out
}

// ServeHTTP runs the router-level handlers, then dispatches through the
// engine.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	serve(w, req, r.opts.Logger, nil, r.uses, func(c *Context) error {
		r.engine.ServeHTTP(c.W, c.R)
		return c.takeErr()
	})
}

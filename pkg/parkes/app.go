// Package parkes maps resource declarations onto HTTP routes and renders
// every record a controller produces in a public or a private shape.
//
// A Router declares resources; an App hosts one (or any http.Handler) behind
// a middleware stack and an HTTP server with graceful shutdown.
package parkes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	orm "github.com/dministrator/parkes/internal/orm"
)

// appKey stores the *App on requests served through App.Handler.
type appKey struct{}

// App hosts a handler behind middleware and an HTTP server. Configure it
// before serving; it holds no global state.
type App struct {
	Name            string
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	logger     zerolog.Logger
	router     http.Handler
	middleware []Middleware

	db         *sql.DB
	bunAdapter *orm.BunAdapter

	running atomic.Bool
}

// ErrAppAlreadyRunning is returned when Run or Serve is called on an App
// that is already serving.
var ErrAppAlreadyRunning = errors.New("app: already running")

// Option configures an App at construction time.
type Option func(*App)

// WithLogger sets the App logger.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithBun attaches a BunAdapter. A nil adapter is ignored.
func WithBun(b *orm.BunAdapter) Option {
	return func(a *App) { a.SetBun(b) }
}

// WithAddr sets the listen address (eg. ":3000").
func WithAddr(addr string) Option {
	return func(a *App) { a.Addr = addr }
}

// WithTimeouts sets the server read, write and idle timeouts. Zero values
// keep the defaults.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(a *App) {
		if read > 0 {
			a.ReadTimeout = read
		}
		if write > 0 {
			a.WriteTimeout = write
		}
		if idle > 0 {
			a.IdleTimeout = idle
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(a *App) { a.ShutdownTimeout = d }
}

// WithRouter sets the handler serving requests.
func WithRouter(h http.Handler) Option {
	return func(a *App) { a.SetRouter(h) }
}

// WithLogging registers LoggingMiddleware on the App logger.
func WithLogging() Option {
	return func(a *App) { a.Use(LoggingMiddleware(a.logger)) }
}

// WithRequestID registers RequestIDMiddleware. An empty headerName means
// X-Request-ID.
func WithRequestID(headerName string) Option {
	return func(a *App) { a.Use(RequestIDMiddleware(headerName)) }
}

// WithTimeout registers a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(a *App) { a.Use(TimeoutMiddleware(d)) }
}

// WithDefaultMiddleware registers Recovery, RequestID and Logging, outermost
// first. Apply it after WithLogger.
func WithDefaultMiddleware() Option {
	return func(a *App) {
		a.Use(Recovery(a.logger))
		a.Use(RequestIDMiddleware(""))
		a.Use(LoggingMiddleware(a.logger))
	}
}

// New returns an App with default timeouts, a JSON logger on stdout and an
// empty ServeMux. It does not listen.
func New(name string, opts ...Option) *App {
	a := &App{
		Name:            name,
		Addr:            ":3000",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		logger:          zerolog.New(os.Stdout).With().Timestamp().Str("app", name).Logger(),
		router:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Logger returns the App logger.
func (a *App) Logger() *zerolog.Logger { return &a.logger }

// SetBun attaches b and its *sql.DB.
func (a *App) SetBun(b *orm.BunAdapter) {
	a.bunAdapter = b
	if b != nil && b.SQLDB != nil {
		a.SetDB(b.SQLDB)
	}
}

// Bun returns the attached *bun.DB, or nil.
func (a *App) Bun() *bun.DB {
	if a == nil || a.bunAdapter == nil {
		return nil
	}
	return a.bunAdapter.DB
}

// Use appends m to the middleware stack. The first registered is outermost.
func (a *App) Use(m Middleware) {
	a.middleware = append(a.middleware, m)
}

// SetRouter replaces the handler. Nil installs an empty ServeMux.
func (a *App) SetRouter(h http.Handler) {
	if h == nil {
		h = http.NewServeMux()
	}
	a.router = h
}

// Handler composes the middleware around the router. Requests reaching the
// router carry the App, so handler chains can use it.
func (a *App) Handler() http.Handler {
	router := a.router
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), appKey{}, a)))
	})
	for i := len(a.middleware) - 1; i >= 0; i-- {
		h = a.middleware[i](h)
	}
	return h
}

func appFromRequest(r *http.Request) *App {
	a, _ := r.Context().Value(appKey{}).(*App)
	return a
}

// Run listens on a.Addr and serves until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails. Shutdown
// waits up to ShutdownTimeout for in-flight requests, then closes the
// remaining connections.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if !a.running.CompareAndSwap(false, true) {
		_ = ln.Close()
		return ErrAppAlreadyRunning
	}
	defer a.running.Store(false)

	srv := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  a.ReadTimeout,
		WriteTimeout: a.WriteTimeout,
		IdleTimeout:  a.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down")
		return a.shutdown(srv)
	})
	if err := g.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("server stopped")
		return err
	}
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) shutdown(srv *http.Server) error {
	t := a.ShutdownTimeout
	if t <= 0 {
		t = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), t)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ServeHTTP serves r through the composed handler, so an App can be used
// directly with httptest.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.Handler().ServeHTTP(w, r)
}

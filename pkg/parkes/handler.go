package parkes

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

// Next continues the handler chain and returns the first error raised
// downstream.
type Next func() error

// Handler is a link in a chain. It may act before and after calling next;
// work after next runs once everything downstream has completed.
type Handler func(c *Context, next Next) error

// ErrNextCalledTwice is returned when a handler invokes next more than once.
var ErrNextCalledTwice = errors.New("parkes: next() called multiple times")

// Chain composes handlers into an http.Handler. When the request does not
// already carry a Context the chain owns one and writes the response after
// the last handler returns.
func Chain(logger zerolog.Logger, hs ...Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, logger, nil, hs, nil)
	})
}

// run invokes hs in order, then final.
func run(c *Context, hs []Handler, final func(*Context) error) error {
	var dispatch func(i int) error
	dispatch = func(i int) error {
		if i == len(hs) {
			if final == nil {
				return nil
			}
			return final(c)
		}
		called := false
		return hs[i](c, func() error {
			if called {
				return ErrNextCalledTwice
			}
			called = true
			return dispatch(i + 1)
		})
	}
	return dispatch(0)
}

// serve runs a chain for one request. A chain that created the Context
// finishes the response; a chain reached through a mount hands its error back
// through the shared Context instead.
func serve(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, setup func(*Context), hs []Handler, final func(*Context) error) {
	c, owner := acquire(w, r, logger)
	if setup != nil {
		setup(c)
	}
	err := run(c, hs, final)
	if !owner {
		c.err = err
		return
	}
	c.finish(err)
}

// acquire returns the Context already attached to r, or a new one writing
// to w.
func acquire(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*Context, bool) {
	if c, ok := FromRequest(r); ok {
		c.R = r
		return c, false
	}
	app := appFromRequest(r)
	c := NewContext(app, w, r)
	if app == nil {
		c.logger = logger
	}
	return c, true
}

// takeErr returns and clears the error handed back by a mounted chain.
func (c *Context) takeErr() error {
	err := c.err
	c.err = nil
	return err
}

func contextWith(r *http.Request, c *Context) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, c)
}

// Package router implements the small, dependency-free HTTP routing engine
// parkes registers resource routes on by default. It focuses on exactly what
// the resource layer needs from a host engine:
//
// - register a handler for METHOD + pattern, with colon-prefixed parameter
//   segments (e.g. /users/:user)
// - mount a sub-handler under a (possibly parameterized) prefix, so nested
//   resource trees can be served by their own router
// - expose the merged path parameters on the request context
//
// Matching is segment based and follows registration order. The engine
// keeps no global state.
package router

import (
	"context"
	"net/http"
	"strings"
)

// ctxParamsKey is the context key used to store path parameters on requests.
type ctxParamsKey struct{}

// ctxRoutePathKey stores the path remaining after a mount prefix was consumed.
type ctxRoutePathKey struct{}

// ParamsFromContext returns the route parameters stored on the request's
// context. If none are present an empty map is returned.
func ParamsFromContext(ctx context.Context) map[string]string {
	if ctx == nil {
		return map[string]string{}
	}
	if v, ok := ctx.Value(ctxParamsKey{}).(map[string]string); ok && v != nil {
		return v
	}
	return map[string]string{}
}

// Param is a convenience helper to fetch a single path parameter by name.
// It returns an empty string when not present.
func Param(r *http.Request, name string) string {
	return ParamsFromContext(r.Context())[name]
}

type route struct {
	method   string
	pattern  string
	segments []string // pattern split by '/'
	handler  http.Handler
}

type mount struct {
	pattern  string
	segments []string
	handler  http.Handler
}

// Router is a simple HTTP router that supports path parameters using the
// colon prefix (e.g. /users/:id) and mounting of sub-handlers.
type Router struct {
	routes []*route
	mounts []*mount
	// NotFound handler can be customized. If nil, http.NotFound is used.
	NotFound http.Handler
	// MethodNotAllowed handler called when a path matches but method doesn't.
	MethodNotAllowed http.Handler
}

// New creates an empty Router.
func New() *Router {
	return &Router{}
}

// Handle registers a handler for method and pattern.
// Pattern must start with '/'. Parameter segments start with ':' and match a
// single path segment.
func (r *Router) Handle(method, pattern string, h http.Handler) {
	checkPattern(pattern)
	if h == nil {
		panic("router: nil handler for " + method + " " + pattern)
	}
	r.routes = append(r.routes, &route{
		method:   strings.ToUpper(method),
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  h,
	})
}

// Mount serves every request whose path starts with pattern and has at least
// one more segment through h. Parameters captured by the prefix are merged
// into the request's parameters, and h routes on the remaining path.
func (r *Router) Mount(pattern string, h http.Handler) {
	checkPattern(pattern)
	if h == nil {
		panic("router: nil handler mounted at " + pattern)
	}
	r.mounts = append(r.mounts, &mount{pattern: pattern, segments: splitPath(pattern), handler: h})
}

// PathParam returns the named parameter matched for req, satisfying the
// parameter lookup the resource layer expects from an engine.
func (r *Router) PathParam(req *http.Request, name string) string {
	return Param(req, name)
}

// ServeHTTP implements http.Handler. It finds the first matching route
// (in registration order), injects params into the request context, and
// invokes the handler. Mounts are consulted when no route matches. If a path
// matches but the method does not, MethodNotAllowed is called.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := normalizePath(routePath(req))
	inherited := ParamsFromContext(req.Context())
	var methodMismatch bool

	for _, rt := range r.routes {
		ok, params := matchRoute(rt.segments, path)
		if !ok {
			continue
		}
		if rt.method != req.Method {
			methodMismatch = true
			continue
		}
		ctx := context.WithValue(req.Context(), ctxParamsKey{}, merge(inherited, params))
		rt.handler.ServeHTTP(w, req.WithContext(ctx))
		return
	}

	for _, m := range r.mounts {
		ok, params, rest := matchPrefix(m.segments, path)
		if !ok {
			continue
		}
		ctx := context.WithValue(req.Context(), ctxParamsKey{}, merge(inherited, params))
		ctx = context.WithValue(ctx, ctxRoutePathKey{}, rest)
		m.handler.ServeHTTP(w, req.WithContext(ctx))
		return
	}

	if methodMismatch {
		if r.MethodNotAllowed != nil {
			r.MethodNotAllowed.ServeHTTP(w, req)
			return
		}
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if r.NotFound != nil {
		r.NotFound.ServeHTTP(w, req)
		return
	}
	http.NotFound(w, req)
}

func checkPattern(p string) {
	if !strings.HasPrefix(p, "/") {
		panic("router: pattern must begin with '/'")
	}
}

// routePath returns the path left to route: the remainder after a mount
// prefix when the request came through one, the URL path otherwise.
func routePath(req *http.Request) string {
	if p, ok := req.Context().Value(ctxRoutePathKey{}).(string); ok {
		return p
	}
	return req.URL.Path
}

// merge copies parent params and overlays child params. The parent map is
// never modified since sibling requests may share it.
func merge(parent, child map[string]string) map[string]string {
	out := make(map[string]string, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

// splitPath splits a pattern into segments, preserving parameter segments.
// Example: "/users/:id/edit" -> ["users", ":id", "edit"]
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return []string{}
	}
	return strings.Split(p, "/")
}

// normalizePath prepares an incoming request path for matching.
// It removes a trailing slash unless the path is just "/".
func normalizePath(p string) string {
	if p == "/" {
		return p
	}
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

// matchRoute attempts to match the candidate path to the route segments.
// Returns ok and a map of parameters when matched.
func matchRoute(segs []string, path string) (bool, map[string]string) {
	if len(segs) == 0 {
		return path == "/", map[string]string{}
	}
	parts := splitPath(path)
	if len(parts) != len(segs) {
		return false, nil
	}
	return matchSegments(segs, parts)
}

// matchPrefix matches segs against the leading segments of path. The mount
// only applies when at least one segment remains for the mounted handler.
func matchPrefix(segs []string, path string) (bool, map[string]string, string) {
	parts := splitPath(path)
	if len(parts) <= len(segs) {
		return false, nil, ""
	}
	ok, params := matchSegments(segs, parts[:len(segs)])
	if !ok {
		return false, nil, ""
	}
	return true, params, "/" + strings.Join(parts[len(segs):], "/")
}

func matchSegments(segs, parts []string) (bool, map[string]string) {
	params := map[string]string{}
	for i, s := range segs {
		p := parts[i]
		if strings.HasPrefix(s, ":") {
			name := strings.TrimPrefix(s, ":")
			if name == "" || p == "" {
				return false, nil
			}
			params[name] = p
			continue
		}
		if s != p {
			return false, nil
		}
	}
	return true, params
}

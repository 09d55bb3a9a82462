// Package parkes: request context.
//
// Context is the request-scoped value passed along a handler chain. It
// carries the per-request state controllers fill in (a record or a
// collection) and the response body presenters produce. Writes are deferred:
// nothing reaches the client until the outermost chain finishes, so handlers
// that run on the way out (such as the powered-by header) can still change
// headers.
package parkes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	routerpkg "github.com/dministrator/parkes/internal/router"
)

// ctxKey stores the *Context on the request so mounted routers share it.
type ctxKey struct{}

// Context is a small, testable wrapper around ResponseWriter and Request.
type Context struct {
	// App is the running application, when the request came through one.
	App *App

	// W is the response writer for the current request. Output is buffered
	// until the chain completes.
	W http.ResponseWriter

	// R is the incoming http request.
	R *http.Request

	out    *deferredWriter
	params paramSource
	route  *RouteDescriptor
	logger zerolog.Logger

	state      map[string]any
	record     Record
	collection *Collection

	body    any
	hasBody bool
	status  int

	// err carries a chain error across an http.Handler boundary (a mounted
	// router) back to the chain that owns the Context.
	err error
}

type paramSource interface {
	PathParam(r *http.Request, name string) string
}

// NewContext constructs a Context outside of a router, for tests or custom
// handlers. App may be nil.
func NewContext(app *App, w http.ResponseWriter, r *http.Request) *Context {
	dw := &deferredWriter{ResponseWriter: w}
	c := &Context{App: app, W: dw, out: dw, logger: zerolog.Nop()}
	if app != nil {
		c.logger = app.logger
	}
	c.R = r.WithContext(contextWith(r, c))
	return c
}

// FromRequest returns the Context attached to r by a parkes chain, if any.
func FromRequest(r *http.Request) (*Context, bool) {
	c, ok := r.Context().Value(ctxKey{}).(*Context)
	return c, ok
}

// Route returns the descriptor of the resource route serving the request, or
// nil when no route matched (yet).
func (c *Context) Route() *RouteDescriptor { return c.route }

// Param returns the named path parameter or an empty string if missing.
func (c *Context) Param(name string) string {
	if c.params != nil {
		return c.params.PathParam(c.R, name)
	}
	return routerpkg.Param(c.R, name)
}

// ParamInt parses the named path parameter as a base-10 int64. Failures are
// reported as 400 errors.
func (c *Context) ParamInt(name string) (int64, error) {
	v := c.Param(name)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, v))
	}
	return n, nil
}

// Query returns the first value of the named query parameter.
func (c *Context) Query(name string) string {
	return c.R.URL.Query().Get(name)
}

// Set stores an arbitrary per-request value.
func (c *Context) Set(key string, v any) {
	if c.state == nil {
		c.state = make(map[string]any)
	}
	c.state[key] = v
}

// Get returns a per-request value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.state[key]
	return v, ok
}

// SetRecord stores the single record a record action produced.
func (c *Context) SetRecord(r Record) { c.record = r }

// Record returns the record stored by SetRecord.
func (c *Context) Record() Record { return c.record }

// SetCollection stores the records an index action produced, together with
// sibling metadata (pagination etc.) rendered next to them.
func (c *Context) SetCollection(items []Record, meta map[string]any) {
	c.collection = &Collection{Items: items, Meta: meta}
}

// Collection returns the collection stored by SetCollection.
func (c *Context) Collection() *Collection { return c.collection }

// SetHeader sets a header on the response.
func (c *Context) SetHeader(key, value string) {
	c.W.Header().Set(key, value)
}

// Status sets the HTTP status code written when the chain completes.
func (c *Context) Status(code int) {
	c.status = code
}

// SetBody sets the value encoded as the JSON response body.
func (c *Context) SetBody(v any) {
	c.body = v
	c.hasBody = true
}

// Body returns the value set with SetBody.
func (c *Context) Body() any { return c.body }

// JSON sets v as the response body with the provided status code.
func (c *Context) JSON(status int, v any) {
	if status != 0 {
		c.Status(status)
	}
	c.SetBody(v)
}

// Redirect sends an HTTP redirect to the client.
func (c *Context) Redirect(urlStr string, code int) {
	if code == 0 {
		code = http.StatusFound
	}
	http.Redirect(c.W, c.R, urlStr, code)
}

// BindJSON decodes the request body into dst. dst must be a pointer. Decode
// failures are reported as 400 errors.
func (c *Context) BindJSON(dst any) error {
	if dst == nil {
		return fmt.Errorf("bind json: dst is nil")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, c.R.Body)
		_ = c.R.Body.Close()
	}()
	dec := json.NewDecoder(c.R.Body)
	if err := dec.Decode(dst); err != nil {
		return &HTTPError{Status: http.StatusBadRequest, Message: "invalid JSON body", Err: err}
	}
	return nil
}

// FormValue is a small helper to retrieve form values (POST/PUT). It calls
// ParseForm if necessary.
func (c *Context) FormValue(key string) string {
	_ = c.R.ParseForm()
	return c.R.FormValue(key)
}

// ResponseStatus reports the status the response will be written with when
// the chain completes with err.
func (c *Context) ResponseStatus(err error) int {
	switch {
	case err != nil:
		return errorStatus(err)
	case c.hasBody:
		if c.status != 0 {
			return c.status
		}
		return http.StatusOK
	case c.out.wrote:
		return c.out.status
	case c.status != 0:
		return c.status
	}
	return http.StatusNotFound
}

// finish writes the response once the owning chain returned.
func (c *Context) finish(err error) {
	status := c.ResponseStatus(err)
	w := c.out.ResponseWriter

	switch {
	case err != nil:
		if status >= http.StatusInternalServerError {
			c.logger.Error().Err(err).Str("method", c.R.Method).Str("path", c.R.URL.Path).Msg("request failed")
		}
		writeJSON(w, status, map[string]string{"error": errorMessage(err)})
	case c.hasBody:
		b, merr := json.Marshal(c.body)
		if merr != nil {
			c.logger.Error().Err(merr).Str("path", c.R.URL.Path).Msg("encode response body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": http.StatusText(http.StatusInternalServerError)})
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(append(b, '\n'))
	case c.out.wrote:
		_ = c.out.flush()
	case c.status != 0:
		w.WriteHeader(status)
	default:
		http.NotFound(w, c.R)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// deferredWriter buffers status and body until flush. Header() is the
// underlying header map, so header changes made at any point before flush
// reach the client.
type deferredWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
	buf    bytes.Buffer
}

func (d *deferredWriter) WriteHeader(code int) {
	if d.status == 0 {
		d.status = code
	}
	d.wrote = true
}

func (d *deferredWriter) Write(p []byte) (int, error) {
	if d.status == 0 {
		d.status = http.StatusOK
	}
	d.wrote = true
	return d.buf.Write(p)
}

func (d *deferredWriter) flush() error {
	if !d.wrote {
		return nil
	}
	d.ResponseWriter.WriteHeader(d.status)
	_, err := d.ResponseWriter.Write(d.buf.Bytes())
	return err
}

// Package parkes: presenters.
//
// Presenters run after a controller action and turn the record or collection
// it stored on the Context into the response body. Every record renders in
// one of two shapes: public, or private when the request asks for it with the
// private query parameter.
package parkes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoRecord is returned by PresentRecord when the action stored no record.
	ErrNoRecord = errors.New("parkes: no record stored for presentation")
	// ErrNoCollection is returned by PresentArray when the action stored no collection.
	ErrNoCollection = errors.New("parkes: no collection stored for presentation")
)

// Mode selects which projection of a record is rendered.
type Mode int

const (
	Public Mode = iota
	Private
)

func (m Mode) String() string {
	switch m {
	case Public:
		return "public"
	case Private:
		return "private"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Record is anything that can render itself as JSON-serializable values in
// public and private form. Either call may block; ctx is the request context.
type Record interface {
	ToPublic(ctx context.Context) (any, error)
	ToPrivate(ctx context.Context) (any, error)
}

// Collection is the index action's result: ordered records plus metadata
// rendered as sibling fields of "data".
type Collection struct {
	Items []Record
	Meta  map[string]any
}

// NewCollection builds a Collection from a slice of concrete record types.
func NewCollection[T Record](items []T, meta map[string]any) *Collection {
	return &Collection{Items: Records(items), Meta: meta}
}

// Records converts a slice of concrete record types for SetCollection.
func Records[T Record](items []T) []Record {
	out := make([]Record, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// IsPrivate reports whether r asks for private rendering: the private query
// parameter is present with a non-empty value other than "false". Note that
// "0" therefore counts as private.
func IsPrivate(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}
	v := r.URL.Query().Get("private")
	return v != "" && v != "false"
}

// ModeFor returns the rendering mode requested by r.
func ModeFor(r *http.Request) Mode {
	if IsPrivate(r) {
		return Private
	}
	return Public
}

// Render projects rec in the given mode.
func Render(ctx context.Context, rec Record, mode Mode) (any, error) {
	if rec == nil {
		return nil, ErrNoRecord
	}
	switch mode {
	case Public:
		return rec.ToPublic(ctx)
	case Private:
		return rec.ToPrivate(ctx)
	}
	return nil, fmt.Errorf("parkes: unknown render mode %v", mode)
}

// PresentRecord renders the stored record and sets the body to
// {"data": <record>}.
func PresentRecord(c *Context, next Next) error {
	rec := c.Record()
	if rec == nil {
		return ErrNoRecord
	}
	v, err := Render(c.R.Context(), rec, ModeFor(c.R))
	if err != nil {
		return err
	}
	c.SetBody(map[string]any{"data": v})
	return next()
}

// PresentArray renders every stored record concurrently and sets the body to
// the collection metadata plus "data": [<records>], in input order.
func PresentArray(c *Context, next Next) error {
	coll := c.Collection()
	if coll == nil {
		return ErrNoCollection
	}
	mode := ModeFor(c.R)

	out := make([]any, len(coll.Items))
	g, ctx := errgroup.WithContext(c.R.Context())
	for i, rec := range coll.Items {
		g.Go(func() error {
			v, err := Render(ctx, rec, mode)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	body := make(map[string]any, len(coll.Meta)+1)
	for k, v := range coll.Meta {
		if k == "collection" {
			continue
		}
		body[k] = v
	}
	body["data"] = out
	c.SetBody(body)
	return next()
}

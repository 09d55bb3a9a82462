// Package parkes: controller capabilities.
//
// A controller is any value implementing some subset of the five resource
// actions. Each action is an interface with a single method so controllers
// only implement what they serve; the router looks up the selected actions at
// registration time and fails fast when one is missing.
//
// This file implements:
// - Action: the closed set of resource actions
// - Indexer, Shower, Creator, Updater, Destroyer: per-action capabilities
// - ActionMap: a function-table controller for small or generated code
// - Controller: an embeddable base holding the App
package parkes

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
)

// Action is one of the conventional resource operations.
type Action int

// The zero Action marks routes declared directly rather than through Resource.
const (
	Index Action = iota + 1
	Show
	Create
	Update
	Destroy
)

// AllActions lists the resource actions in registration order.
var AllActions = []Action{Index, Show, Create, Update, Destroy}

var actionNames = map[Action]string{
	Index:   "index",
	Show:    "show",
	Create:  "create",
	Update:  "update",
	Destroy: "destroy",
}

func (a Action) String() string {
	return actionNames[a]
}

// Valid reports whether a is one of the five resource actions.
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// ParseAction resolves an action by its lower-case name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %s (valid actions are %s)", name, validActionList())
}

func validActionList() string {
	names := make([]string, 0, len(AllActions))
	for _, a := range AllActions {
		names = append(names, a.String())
	}
	return strings.Join(names, ", ")
}

// Indexer serves GET /<plural>. It must store a collection with
// Context.SetCollection before calling next.
type Indexer interface {
	Index(c *Context, next Next) error
}

// Shower serves GET /<plural>/:<singular>.
type Shower interface {
	Show(c *Context, next Next) error
}

// Creator serves POST /<plural>.
type Creator interface {
	Create(c *Context, next Next) error
}

// Updater serves PATCH /<plural>/:<singular>.
type Updater interface {
	Update(c *Context, next Next) error
}

// Destroyer serves DELETE /<plural>/:<singular>. Like the other record
// actions it stores the affected record with Context.SetRecord.
type Destroyer interface {
	Destroy(c *Context, next Next) error
}

// ActionMap is a controller expressed as a table of handlers. Only the keys
// present count as implemented actions.
type ActionMap map[Action]Handler

// lookupAction returns ctrl's handler for a, bound to ctrl.
func lookupAction(ctrl any, a Action) (Handler, bool) {
	if m, ok := ctrl.(ActionMap); ok {
		h, ok := m[a]
		return h, ok && h != nil
	}
	switch a {
	case Index:
		if x, ok := ctrl.(Indexer); ok {
			return x.Index, true
		}
	case Show:
		if x, ok := ctrl.(Shower); ok {
			return x.Show, true
		}
	case Create:
		if x, ok := ctrl.(Creator); ok {
			return x.Create, true
		}
	case Update:
		if x, ok := ctrl.(Updater); ok {
			return x.Update, true
		}
	case Destroy:
		if x, ok := ctrl.(Destroyer); ok {
			return x.Destroy, true
		}
	}
	return nil, false
}

// isNil catches typed nil pointers and maps passed as controllers.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Controller is a minimal base that application controllers can embed or
// compose. It holds a reference to the App so actions can reach shared
// services.
type Controller struct {
	App *App
}

// NewController is a convenience constructor.
func NewController(app *App) *Controller { return &Controller{App: app} }

// Logger returns the App logger, or a disabled logger when no App is set.
func (c *Controller) Logger() *zerolog.Logger {
	if c == nil || c.App == nil {
		l := zerolog.Nop()
		return &l
	}
	return c.App.Logger()
}

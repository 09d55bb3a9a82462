package parkes

import (
	"fmt"
	"net/http"

	"github.com/jinzhu/inflection"
)

type resourceConfig struct {
	actions  []Action
	explicit bool
	names    []string
	nested   func(*Router)
}

// ResourceOption customizes a Resource declaration.
type ResourceOption func(*resourceConfig)

// Actions restricts a resource to the listed actions, overriding the
// defaults.
func Actions(actions ...Action) ResourceOption {
	return func(rc *resourceConfig) {
		rc.actions = append(rc.actions, actions...)
		rc.explicit = true
	}
}

// ActionNames is Actions for names read from configuration or flags
// ("index", "show", ...). Unknown names fail the declaration.
func ActionNames(names ...string) ResourceOption {
	return func(rc *resourceConfig) {
		rc.names = append(rc.names, names...)
		rc.explicit = true
	}
}

// Nested declares sub-resources. fn receives a router whose routes are
// mounted under this resource's item path.
func Nested(fn func(*Router)) ResourceOption {
	return func(rc *resourceConfig) { rc.nested = fn }
}

// routeShape maps an action onto its method, path and presenter.
func routeShape(a Action, collectionPath, itemPath string) (string, string, Handler) {
	switch a {
	case Index:
		return http.MethodGet, collectionPath, PresentArray
	case Show:
		return http.MethodGet, itemPath, PresentRecord
	case Create:
		return http.MethodPost, collectionPath, PresentRecord
	case Update:
		return http.MethodPatch, itemPath, PresentRecord
	case Destroy:
		return http.MethodDelete, itemPath, PresentRecord
	}
	return "", "", nil
}

// defaultActions depends on where the router sits in the resource tree.
func (r *Router) defaultActions() []Action {
	switch {
	case r.opts.InParent:
		return []Action{Index, Create}
	case r.opts.Nested:
		return []Action{Show, Update, Destroy}
	}
	return AllActions
}

// Resource declares a RESTful resource served by controller.
//
// name may be singular or plural: routes are derived from both forms, so
// "user" and "users" both yield
//
//	GET    /users            index
//	GET    /users/:user      show
//	POST   /users            create
//	PATCH  /users/:user      update
//	DELETE /users/:user      destroy
//
// Without Actions the defaults apply: all five at the top level, index and
// create inside a Nested callback. Every selected action must be
// implemented by controller (see Indexer and friends). A declaration that
// cannot be served panics with a *ConfigError; use Build to receive it as an
// error instead. Nothing is registered when the declaration fails.
func (r *Router) Resource(name string, controller any, opts ...ResourceOption) *Router {
	if name == "" {
		panic(configErrorf("", "resource name is empty"))
	}
	if isNil(controller) {
		panic(configErrorf(name, "controller is nil"))
	}
	var rc resourceConfig
	for _, opt := range opts {
		opt(&rc)
	}

	actions, err := r.selectActions(name, rc)
	if err != nil {
		panic(err)
	}
	handlers := make([]Handler, len(actions))
	for i, a := range actions {
		h, ok := lookupAction(controller, a)
		if !ok {
			panic(configErrorf(name, "controller for resource %s has no %s method", name, a))
		}
		handlers[i] = h
	}

	collectionPath := "/" + inflection.Plural(name)
	itemPath := collectionPath + "/:" + inflection.Singular(name)

	for i, a := range actions {
		method, path, presenter := routeShape(a, collectionPath, itemPath)
		desc := &RouteDescriptor{
			Method:    method,
			Path:      r.prefix + path,
			Action:    a,
			Resource:  inflection.Plural(name),
			Handler:   handlers[i],
			Presenter: presenter,
		}
		r.register(method, path, desc, []Handler{handlers[i], presenter})
	}

	if rc.nested != nil {
		child := newRouter(r.opts.child(), r.prefix+itemPath)
		rc.nested(child)
		r.mount(itemPath, child)
	}
	return r
}

// selectActions resolves the explicit or default action list and validates it.
func (r *Router) selectActions(name string, rc resourceConfig) ([]Action, error) {
	if !rc.explicit {
		return r.defaultActions(), nil
	}
	actions := append([]Action(nil), rc.actions...)
	for _, n := range rc.names {
		a, err := ParseAction(n)
		if err != nil {
			return nil, configErrorf(name, "%v", err)
		}
		actions = append(actions, a)
	}
	if len(actions) == 0 {
		return nil, configErrorf(name, "empty action list")
	}
	seen := make(map[Action]bool, len(actions))
	for _, a := range actions {
		if !a.Valid() {
			return nil, configErrorf(name, "unknown action %d (valid actions are %s)", int(a), validActionList())
		}
		if seen[a] {
			return nil, configErrorf(name, "duplicate action %s", a)
		}
		seen[a] = true
	}
	return actions, nil
}

// Build runs fn against r and returns the first declaration error instead
// of panicking. Panics that are not configuration errors are re-raised.
func Build(r *Router, fn func(*Router)) (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if ce, ok := rec.(*ConfigError); ok {
			err = ce
			return
		}
		panic(rec)
	}()
	if r == nil {
		return fmt.Errorf("parkes: nil router")
	}
	fn(r)
	return nil
}

package app

import (
	"fmt"
	"regexp"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// isPath is the RegExp to ensure the routes make sense
var isPath = regexp.MustCompile(`^[a-zA-Z0-9_/]+$`).MatchString

// Router allows us to register many handlers with different
// paths and then direct each message to the proper handler.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	routes map[string]keyward.Handler
}

var _ keyward.Registry = (*Router)(nil)
var _ keyward.Handler = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]keyward.Handler, 32),
	}
}

// Handle adds a new Handler for the given path. This function panics if a
// handler for given path is already registered or the path is malformed.
func (r *Router) Handle(path string, h keyward.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %s", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the registered Handler for this path. If no path is
// found, returns a noSuchPath Handler. Always returns a non-nil Handler.
func (r *Router) Handler(path string) keyward.Handler {
	if h, ok := r.routes[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path.
func (r *Router) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.Handler(msg.Path()).Check(ctx, db, tx)
}

// Deliver dispatches to the proper handler based on path.
func (r *Router) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.Handler(msg.Path()).Deliver(ctx, db, tx)
}

// notFoundHandler always returns ErrNotFound for the path.
type notFoundHandler string

func (path notFoundHandler) Check(keyward.Context, keyward.KVStore, keyward.Tx) (*keyward.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", path)
}

func (path notFoundHandler) Deliver(keyward.Context, keyward.KVStore, keyward.Tx) (*keyward.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", path)
}

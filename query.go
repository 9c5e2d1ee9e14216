package keyward

import (
	"fmt"
	"sort"
)

// Query modes understood by buckets and indexes.
const (
	// KeyQueryMod returns the single entry stored under the key.
	KeyQueryMod = ""
	// PrefixQueryMod returns every entry whose key starts with the data.
	PrefixQueryMod = "prefix"
)

// Model is a key with its value.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair builds a Model.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler answers ABCI queries for one path.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister adds the query handlers of an extension to a router.
type QueryRegister func(QueryRouter)

// QueryRouter dispatches a query path to its handler.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

func (r QueryRouter) RegisterAll(qr ...QueryRegister) {
	for _, register := range qr {
		register(r)
	}
}

// Register binds h to path. A path can be bound only once.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering query path: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the handler bound to path or nil.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// Paths lists all bound paths in order.
func (r QueryRouter) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

package keyward

import (
	"encoding/json"

	"github.com/keyward/keyward/errors"
)

// Handler processes the messages routed to it, for example creating a
// proposal or activating a guardian.
type Handler interface {
	Checker
	Deliverer
}

// Checker validates a transaction without applying it. State changes made
// during Check only live until the next block.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer applies a transaction to the state.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator runs before a Handler and decides whether and how the next
// step is called. Authentication, logging and savepoints are decorators.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry binds handlers to message paths.
type Registry interface {
	Handle(path string, h Handler)
}

// Options is the app_state of the genesis file. Every extension reads the
// keys it owns.
type Options map[string]json.RawMessage

// ReadOptions decodes the value under key into obj. A missing key leaves
// obj untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw := o[key]
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis %q: %s", key, err)
	}
	return nil
}

// Initializer loads the genesis state of an extension.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

package app

import (
	"reflect"

	"github.com/keyward/keyward"
)

// Decorators holds a chain of decorators, not yet resolved by a Handler
type Decorators struct {
	chain []keyward.Decorator
}

/*
ChainDecorators takes a chain of decorators,
and upon adding a final Handler (often a Router),
returns a Handler that will execute this whole stack.

	app.ChainDecorators(
	  utils.NewLogging(),
	  utils.NewRecovery(),
	  sigs.NewDecorator(),
	  utils.NewSavepoint().OnDeliver(),
	).WithHandler(
	  app.NewRouter(),
	)
*/
func ChainDecorators(chain ...keyward.Decorator) Decorators {
	return Decorators{}.Chain(chain...)
}

// Chain allows us to keep adding more Decorators to the chain. Nil
// decorators are skipped.
func (d Decorators) Chain(chain ...keyward.Decorator) Decorators {
	next := make([]keyward.Decorator, 0, len(d.chain)+len(chain))
	next = append(next, d.chain...)
	for _, dec := range chain {
		if isNil(dec) {
			continue
		}
		next = append(next, dec)
	}
	return Decorators{chain: next}
}

func isNil(d keyward.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHandler resolves the stack and returns a concrete Handler
// that will pass through the chain of decorators before calling
// the final Handler.
func (d Decorators) WithHandler(h keyward.Handler) keyward.Handler {
	// the top of the chain is executed first
	for i := len(d.chain) - 1; i >= 0; i-- {
		h = step{d: d.chain[i], next: h}
	}
	return h
}

// step captures one step executing a decorator around a
// specific Handler.
type step struct {
	d    keyward.Decorator
	next keyward.Handler
}

var _ keyward.Handler = step{}

func (s step) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	return s.d.Check(ctx, db, tx, s.next)
}

func (s step) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	return s.d.Deliver(ctx, db, tx, s.next)
}

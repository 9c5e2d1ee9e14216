package utils

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// Savepoint isolates all writes done by the wrapped handler. Changes are
// written to the parent store only when the handler succeeds, otherwise they
// are discarded as a whole.
//
// A proposal execution moves funds out of several wallets. Wrapping the
// handler with a savepoint guarantees that either all transfers are applied
// or none.
type Savepoint struct {
	onCheck   bool
	onDeliver bool
}

var _ keyward.Decorator = Savepoint{}

// NewSavepoint creates a Savepoint decorator that is not active. Call OnCheck
// and/or OnDeliver to enable it.
func NewSavepoint() Savepoint {
	return Savepoint{}
}

// OnCheck returns a savepoint that will trigger on CheckTx
func (s Savepoint) OnCheck() Savepoint {
	s.onCheck = true
	return s
}

// OnDeliver returns a savepoint that will trigger on DeliverTx
func (s Savepoint) OnDeliver() Savepoint {
	s.onDeliver = true
	return s
}

func (s Savepoint) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (*keyward.CheckResult, error) {
	if !s.onCheck {
		return next.Check(ctx, db, tx)
	}
	var res *keyward.CheckResult
	err := Atomic(db, func(cache keyward.KVStore) (err error) {
		res, err = next.Check(ctx, cache, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s Savepoint) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (*keyward.DeliverResult, error) {
	if !s.onDeliver {
		return next.Deliver(ctx, db, tx)
	}
	var res *keyward.DeliverResult
	err := Atomic(db, func(cache keyward.KVStore) (err error) {
		res, err = next.Deliver(ctx, cache, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Atomic calls fn with a cache wrapped view of db. All writes done by fn are
// flushed to db only if fn returns no error. If db cannot be cache wrapped,
// fn operates on db directly.
func Atomic(db keyward.KVStore, fn func(keyward.KVStore) error) error {
	cstore, ok := db.(keyward.CacheableKVStore)
	if !ok {
		return fn(db)
	}
	cache := cstore.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

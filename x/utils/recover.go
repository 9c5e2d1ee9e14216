package utils

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// Recovery is a decorator that converts a panic raised by any of the wrapped
// handlers into an ErrPanic error. A panicking transaction is rejected like
// any other failed one and the node keeps running.
type Recovery struct{}

var _ keyward.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (_ *keyward.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (_ *keyward.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, db, tx)
}

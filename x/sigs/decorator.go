/*
Package sigs provides the signature verification used by the whole
application: recovery of secp256k1 signers, the compact 64 byte signature
encoding, batch recovery with duplicate detection and the authentication
middleware that maintains nonces for replay protection.
*/
package sigs

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// RegisterQuery will register this bucket as "/auth"
func RegisterQuery(qr keyward.QueryRouter) {
	NewBucket().Register("auth", qr)
}

// Decorator verifies the signatures and adds them to the context
type Decorator struct {
	allowMissingSigs bool
	verifier         *Verifier
}

var _ keyward.Decorator = Decorator{}

// NewDecorator returns a default authentication decorator,
// which appends the chainID before checking the signature,
// and requires at least one signature to be present
func NewDecorator() Decorator {
	v, err := NewVerifier(DefaultCacheSize)
	if err != nil {
		panic(err)
	}
	return Decorator{verifier: v}
}

// AllowMissingSigs allows us to pass along items with no signatures
func (d Decorator) AllowMissingSigs() Decorator {
	d.allowMissingSigs = true
	return d
}

// Check verifies signatures before calling down the stack.
func (d Decorator) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Checker) (*keyward.CheckResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

// Deliver verifies signatures before calling down the stack.
func (d Decorator) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx, next keyward.Deliverer) (*keyward.DeliverResult, error) {
	ctx, err := d.authenticate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (d Decorator) authenticate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (keyward.Context, error) {
	stx, ok := tx.(SignedTx)
	if !ok {
		return ctx, nil
	}
	signers, err := VerifyTxSignatures(db, stx, keyward.GetChainID(ctx), d.verifier)
	if err != nil {
		return nil, errors.Wrap(err, "cannot verify signatures")
	}
	if len(signers) == 0 && !d.allowMissingSigs {
		return nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return withSigners(ctx, signers), nil
}

package sigs

import (
	"context"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx keyward.Context, signers []keyward.Condition) keyward.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate gives access to the signers verified by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticate) GetConditions(ctx keyward.Context) []keyward.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]keyward.Condition)
	return val
}

// HasAddress returns true if addr signed the current Context.
func (a Authenticate) HasAddress(ctx keyward.Context, addr keyward.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

package keywardtest

import (
	"context"
	"fmt"

	"github.com/keyward/keyward"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions.
// You can use either Signer or Signers (or both) attributes to reference
// conditions. Each time all signers (regardless which attribute) are
// considered.
type Auth struct {
	// Signer represents an authentication of a single signer. It is
	// always returned as the first condition.
	Signer keyward.Condition

	// Signers represents an authentication of multiple signers.
	Signers []keyward.Condition
}

func (a *Auth) GetConditions(keyward.Context) []keyward.Condition {
	if a.Signer != nil {
		return append([]keyward.Condition{a.Signer}, a.Signers...)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx keyward.Context, addr keyward.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve permissions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context. For
	// convenience only string type keys are allowed.
	Key string
}

func (a *CtxAuth) SetConditions(ctx keyward.Context, permissions ...keyward.Condition) keyward.Context {
	return context.WithValue(ctx, a.Key, permissions)
}

func (a *CtxAuth) GetConditions(ctx keyward.Context) []keyward.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	conds, ok := val.([]keyward.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []keyward.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx keyward.Context, addr keyward.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

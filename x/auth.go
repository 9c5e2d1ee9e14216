package x

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// Authenticator reveals who authorized the current transaction. Handlers
// receive one in their constructor so tests can swap x/sigs for a fake.
type Authenticator interface {
	// GetConditions returns every condition the transaction satisfies, the
	// main signer first.
	GetConditions(keyward.Context) []keyward.Condition
	// HasAddress is true when any of the conditions resolves to addr.
	HasAddress(keyward.Context, keyward.Address) bool
}

// MultiAuth merges the results of several authenticators.
type MultiAuth struct {
	impls []Authenticator
}

var _ Authenticator = MultiAuth{}

// ChainAuth groups authenticators. Conditions keep the order of impls.
func ChainAuth(impls ...Authenticator) MultiAuth {
	return MultiAuth{impls}
}

// GetConditions returns the conditions of all authenticators, each reported
// once.
func (m MultiAuth) GetConditions(ctx keyward.Context) []keyward.Condition {
	var res []keyward.Condition
	for _, impl := range m.impls {
		for _, c := range impl.GetConditions(ctx) {
			if !containsCondition(res, c) {
				res = append(res, c)
			}
		}
	}
	return res
}

func (m MultiAuth) HasAddress(ctx keyward.Context, addr keyward.Address) bool {
	for _, impl := range m.impls {
		if impl.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// MainSigner returns the first condition, or nil for an unsigned
// transaction. Audit events record it as the actor.
func MainSigner(ctx keyward.Context, auth Authenticator) keyward.Condition {
	signers := auth.GetConditions(ctx)
	if len(signers) == 0 {
		return nil
	}
	return signers[0]
}

// RequireSigners returns ErrUnauthorized unless every address in required
// authorized the transaction. A nil address is never satisfied, so an unset
// owner or admin locks the operation.
func RequireSigners(ctx keyward.Context, auth Authenticator, required ...keyward.Address) error {
	for _, addr := range required {
		if addr == nil {
			return errors.Wrap(errors.ErrUnauthorized, "no signer configured")
		}
		if !auth.HasAddress(ctx, addr) {
			return errors.Wrapf(errors.ErrUnauthorized, "missing signature of %s", addr)
		}
	}
	return nil
}

func containsCondition(set []keyward.Condition, c keyward.Condition) bool {
	for _, s := range set {
		if s.Equals(c) {
			return true
		}
	}
	return false
}

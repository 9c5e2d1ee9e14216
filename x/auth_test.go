package x

import (
	"context"
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/keywardtest/assert"
)

func TestAuth(t *testing.T) {
	a := keywardtest.NewCondition()
	b := keywardtest.NewCondition()
	c := keywardtest.NewCondition()

	ctx1 := &keywardtest.CtxAuth{Key: "foo"}
	ctx2 := &keywardtest.CtxAuth{Key: "bar"}

	cases := map[string]struct {
		ctx          keyward.Context
		auth         Authenticator
		mainSigner   keyward.Condition
		wantInCtx    keyward.Condition
		wantNotInCtx keyward.Condition
		wantAll      []keyward.Condition
	}{
		"empty context": {
			ctx:          context.Background(),
			auth:         &keywardtest.Auth{},
			wantNotInCtx: b,
		},
		"signer a": {
			ctx:          context.Background(),
			auth:         &keywardtest.Auth{Signer: a},
			mainSigner:   a,
			wantInCtx:    a,
			wantNotInCtx: b,
			wantAll:      []keyward.Condition{a},
		},
		"signer b": {
			ctx: context.Background(),
			auth: ChainAuth(
				&keywardtest.Auth{Signer: b},
				&keywardtest.Auth{Signer: a}),
			mainSigner:   b,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []keyward.Condition{b, a},
		},
		"chained duplicates are reported once": {
			ctx: context.Background(),
			auth: ChainAuth(
				&keywardtest.Auth{Signer: a},
				&keywardtest.Auth{Signers: []keyward.Condition{a, b}}),
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []keyward.Condition{a, b},
		},
		"ctxAuth checks what is set by same key": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx1,
			mainSigner:   a,
			wantInCtx:    b,
			wantNotInCtx: c,
			wantAll:      []keyward.Condition{a, b},
		},
		"ctxAuth with different key sees nothing": {
			ctx:          ctx1.SetConditions(context.Background(), a, b),
			auth:         ctx2,
			wantNotInCtx: a,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.mainSigner, MainSigner(tc.ctx, tc.auth))
			if tc.wantInCtx != nil && !tc.auth.HasAddress(tc.ctx, tc.wantInCtx.Address()) {
				t.Fatal("condition address that was expected in context not found")
			}

			if tc.wantNotInCtx != nil && tc.auth.HasAddress(tc.ctx, tc.wantNotInCtx.Address()) {
				t.Fatal("condition address that was expected not to be in context found")
			}

			all := tc.auth.GetConditions(tc.ctx)
			assert.Equal(t, tc.wantAll, all)

			addrs := make([]keyward.Address, len(all))
			for i, c := range all {
				addrs[i] = c.Address()
			}
			assert.Nil(t, RequireSigners(tc.ctx, tc.auth, addrs...))
			if tc.wantNotInCtx != nil {
				err := RequireSigners(tc.ctx, tc.auth, append(addrs, tc.wantNotInCtx.Address())...)
				assert.IsErr(t, errors.ErrUnauthorized, err)
			}
		})
	}
}

func TestRequireSigners(t *testing.T) {
	owner := keywardtest.NewCondition()
	admin := keywardtest.NewCondition()
	ctx := context.Background()

	cases := map[string]struct {
		auth     Authenticator
		required []keyward.Address
		wantErr  *errors.Error
	}{
		"nothing required": {
			auth: &keywardtest.Auth{},
		},
		"single signer": {
			auth:     &keywardtest.Auth{Signer: owner},
			required: []keyward.Address{owner.Address()},
		},
		"both signers": {
			auth:     &keywardtest.Auth{Signers: []keyward.Condition{owner, admin}},
			required: []keyward.Address{owner.Address(), admin.Address()},
		},
		"one of two signers missing": {
			auth:     &keywardtest.Auth{Signer: owner},
			required: []keyward.Address{owner.Address(), admin.Address()},
			wantErr:  errors.ErrUnauthorized,
		},
		"unset address cannot be satisfied": {
			auth:     &keywardtest.Auth{Signer: owner},
			required: []keyward.Address{nil},
			wantErr:  errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := RequireSigners(ctx, tc.auth, tc.required...)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

package app

import (
	"context"
	"testing"

	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/keywardtest/assert"
)

func TestRouter(t *testing.T) {
	r := NewRouter()

	counter := &keywardtest.Handler{}
	failing := &keywardtest.Handler{DeliverErr: errors.ErrState}
	r.Handle("vault/deposit", counter)
	r.Handle("vault/create", failing)

	assert.Panics(t, func() { r.Handle("vault/deposit", counter) })
	assert.Panics(t, func() { r.Handle("l:7", counter) })

	ctx := context.Background()
	tx := func(path string) *keywardtest.Tx {
		return &keywardtest.Tx{Msg: &keywardtest.Msg{RoutePath: path}}
	}

	_, err := r.Check(ctx, nil, tx("vault/deposit"))
	assert.Nil(t, err)
	_, err = r.Deliver(ctx, nil, tx("vault/deposit"))
	assert.Nil(t, err)
	assert.Equal(t, 2, counter.CallCount())

	_, err = r.Deliver(ctx, nil, tx("vault/create"))
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, 1, failing.CallCount())

	_, err = r.Deliver(ctx, nil, tx("vault/missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = r.Check(ctx, nil, tx("vault/missing"))
	assert.IsErr(t, errors.ErrNotFound, err)
	assert.Equal(t, 2, counter.CallCount())

	_, err = r.Check(ctx, nil, &keywardtest.Tx{Err: errors.ErrType})
	assert.IsErr(t, errors.ErrType, err)
}

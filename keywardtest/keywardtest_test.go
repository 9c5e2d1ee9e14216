package keywardtest

import (
	"context"
	"testing"
	"time"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

func TestDecoratorWithError(t *testing.T) {
	handler := &Handler{}
	decorator := &Decorator{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrNotFound,
	}
	h := Decorate(handler, decorator)

	db := store.MemStore()
	_, err := h.Check(context.TODO(), db, &Tx{})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = h.Deliver(context.TODO(), db, &Tx{})
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Equal(t, 2, decorator.CallCount())
	assert.Equal(t, 0, handler.CallCount())
}

func TestDecoratorCallsHandler(t *testing.T) {
	handler := &Handler{CheckResult: keyward.CheckResult{Log: "checked"}}
	decorator := &Decorator{}
	h := Decorate(handler, decorator)

	db := store.MemStore()
	res, err := h.Check(context.TODO(), db, &Tx{})
	assert.Nil(t, err)
	assert.Equal(t, "checked", res.Log)
	_, err = h.Deliver(context.TODO(), db, &Tx{})
	assert.Nil(t, err)

	assert.Equal(t, 1, handler.CheckCallCount())
	assert.Equal(t, 1, handler.DeliverCallCount())
	assert.Equal(t, 1, decorator.CheckCallCount())
	assert.Equal(t, 1, decorator.DeliverCallCount())
}

func TestWriteHandler(t *testing.T) {
	db := store.MemStore()
	h := &WriteHandler{Key: []byte("k"), Value: []byte("v"), Err: errors.ErrState}
	_, err := h.Deliver(context.TODO(), db, &Tx{})
	assert.IsErr(t, errors.ErrState, err)
	got, err := db.Get([]byte("k"))
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestContext(t *testing.T) {
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := Context(7, now)
	h, ok := keyward.GetHeight(ctx)
	assert.Equal(t, true, ok)
	assert.Equal(t, int64(7), h)
	assert.Equal(t, keyward.AsUnixTime(now), keyward.Now(ctx))
}

func TestSeqKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, SeqKey("a").PublicKey().Address(), SeqKey("a").PublicKey().Address())
	if SeqKey("a").PublicKey().Address().Equals(SeqKey("b").PublicKey().Address()) {
		t.Fatal("different labels must produce different keys")
	}
	assert.Equal(t, false, NewCondition().Equals(NewCondition()))
}

package keywardtest

import "github.com/keyward/keyward"

// Handler is a mock implementation of the keyward.Handler interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding
// method. Each method call is counted.
type Handler struct {
	checkCall   int
	CheckResult keyward.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult keyward.DeliverResult
	DeliverErr    error
}

var _ keyward.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// WriteHandler stores the key value pair on every call and then returns the
// configured error.
type WriteHandler struct {
	Key   []byte
	Value []byte
	Err   error
}

var _ keyward.Handler = (*WriteHandler)(nil)

func (h *WriteHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &keyward.CheckResult{}, nil
}

func (h *WriteHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	if err := db.Set(h.Key, h.Value); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	return &keyward.DeliverResult{}, nil
}

// PanicHandler panics with the given value on every call.
type PanicHandler struct {
	Value interface{}
}

var _ keyward.Handler = (*PanicHandler)(nil)

func (h *PanicHandler) Check(keyward.Context, keyward.KVStore, keyward.Tx) (*keyward.CheckResult, error) {
	panic(h.Value)
}

func (h *PanicHandler) Deliver(keyward.Context, keyward.KVStore, keyward.Tx) (*keyward.DeliverResult, error) {
	panic(h.Value)
}

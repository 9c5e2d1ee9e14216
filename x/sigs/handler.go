package sigs

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
)

// RegisterRoutes registers the nonce management handler.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator) {
	r.Handle(pathBumpSequenceMsg, &bumpSequenceHandler{
		b:    NewBucket(),
		auth: auth,
	})
}

type bumpSequenceHandler struct {
	auth x.Authenticator
	b    Bucket
}

func (h *bumpSequenceHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h *bumpSequenceHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	addr, user, msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	// The decorator already incremented the sequence by one.
	incr := int64(msg.Increment) - 1
	if incr == 0 {
		return &keyward.DeliverResult{}, nil
	}
	user.Sequence += incr
	if err := h.b.Save(db, NewUserWith(addr, user)); err != nil {
		return nil, errors.Wrap(err, "save user")
	}
	return &keyward.DeliverResult{}, nil
}

func (h *bumpSequenceHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (keyward.Address, *UserData, *BumpSequenceMsg, error) {
	var msg BumpSequenceMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}

	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	addr := signer.Address()
	obj, err := h.b.Get(db, addr)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "bucket")
	}
	if obj == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrNotFound, "no sequence")
	}
	user := AsUser(obj)
	if user.Sequence+int64(msg.Increment) < user.Sequence {
		return nil, nil, nil, errors.Wrap(errors.ErrOverflow, "user sequence")
	}
	return addr, user, &msg, nil
}

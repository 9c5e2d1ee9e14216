package vault

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
)

// RegisterRoutes registers all vault message handlers.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator, ctrl BaseController) {
	r.Handle(pathCreateVaultMsg, CreateVaultHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathDepositMsg, DepositHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathUpdateConfigMsg, UpdateConfigHandler{auth: auth, ctrl: ctrl})
}

// RegisterQuery exposes vaults as "/vaults" and wallets as "/wallets".
func RegisterQuery(qr keyward.QueryRouter) {
	NewVaultBucket().Register("vaults", qr)
	NewWalletBucket().Register("wallets", qr)
}

type CreateVaultHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = CreateVaultHandler{}

func (h CreateVaultHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h CreateVaultHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, owner, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.ctrl.Create(db, &Vault{
		Name:      msg.Name,
		Owner:     owner,
		Config:    msg.Config,
		CreatedAt: keyward.Now(ctx),
	})
	if err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: id,
		Kind:    audit.VaultCreated,
		Actor:   owner,
		Subject: id,
		Detail:  msg.Name,
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: id, Tags: tags}, nil
}

func (h CreateVaultHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*CreateVaultMsg, keyward.Address, error) {
	var msg CreateVaultMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	owner := msg.Owner
	if owner == nil {
		signer := x.MainSigner(ctx, h.auth)
		if signer == nil {
			return nil, nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
		}
		owner = signer.Address()
	} else if err := x.RequireSigners(ctx, h.auth, owner); err != nil {
		return nil, nil, errors.Wrap(err, "owner")
	}
	return &msg, owner, nil
}

// DepositHandler credits a vault. Deposits are accepted in every pause
// state.
type DepositHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h DepositHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Deposit(db, msg.VaultID, msg.Amount); err != nil {
		return nil, err
	}
	var actor keyward.Address
	if signer := x.MainSigner(ctx, h.auth); signer != nil {
		actor = signer.Address()
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: msg.VaultID,
		Kind:    audit.VaultDeposit,
		Actor:   actor,
		Detail:  msg.Amount.String(),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h DepositHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*DepositMsg, error) {
	var msg DepositMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.ctrl.Get(db, msg.VaultID); err != nil {
		return nil, err
	}
	return &msg, nil
}

type UpdateConfigHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = UpdateConfigHandler{}

func (h UpdateConfigHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h UpdateConfigHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	v.Config = msg.Config
	if _, err := h.ctrl.vaults.Put(db, v.ID, v); err != nil {
		return nil, errors.Wrap(err, "cannot store vault")
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: v.ID,
		Kind:    audit.VaultConfigUpdated,
		Actor:   v.Owner,
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h UpdateConfigHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*UpdateConfigMsg, *Vault, error) {
	var msg UpdateConfigMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.ctrl.Authorize(ctx, db, h.auth, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

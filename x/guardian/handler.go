package guardian

import (
	"strconv"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/vault"
)

// RegisterRoutes registers all guardian registry handlers.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator, vaults vault.Controller) {
	ctrl := NewController()
	r.Handle(pathInitiateAdditionMsg, InitiateAdditionHandler{auth: auth, vaults: vaults, ctrl: ctrl})
	r.Handle(pathActivateGuardianMsg, ActivateGuardianHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCancelGuardianMsg, CancelGuardianHandler{auth: auth, vaults: vaults, ctrl: ctrl})
	r.Handle(pathRemoveGuardianMsg, RemoveGuardianHandler{auth: auth, vaults: vaults, ctrl: ctrl})
	r.Handle(pathSetQuorumMsg, SetQuorumHandler{auth: auth, vaults: vaults, ctrl: ctrl})
}

// RegisterQuery exposes guardian records as "/guardians" and thresholds as
// "/quorums".
func RegisterQuery(qr keyward.QueryRouter) {
	NewGuardianBucket().Register("guardians", qr)
	NewQuorumBucket().Register("quorums", qr)
}

type InitiateAdditionHandler struct {
	auth   x.Authenticator
	vaults vault.Controller
	ctrl   BaseController
}

var _ keyward.Handler = InitiateAdditionHandler{}

func (h InitiateAdditionHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h InitiateAdditionHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	delay := keyward.UnixDuration(0)
	if msg.Delay != nil {
		delay = *msg.Delay
	} else {
		conf, err := h.vaults.Config(db, msg.VaultID)
		if err != nil {
			return nil, errors.Wrap(err, "vault configuration")
		}
		delay = conf.ActivationDelay
	}

	id, err := guardianSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}
	now := keyward.Now(ctx)
	g := &Guardian{
		ID:             id,
		VaultID:        msg.VaultID,
		Address:        msg.Guardian,
		Status:         StatusPending,
		ActivationTime: now.AddDuration(delay),
		AddedAt:        now,
		AddedBy:        v.Owner,
	}
	if _, err := h.ctrl.guardians.Put(db, id, g); err != nil {
		return nil, errors.Wrap(err, "cannot store guardian")
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: msg.VaultID,
		Kind:    audit.GuardianAdded,
		Actor:   v.Owner,
		Subject: id,
		Detail:  msg.Guardian.String() + " activates at " + g.ActivationTime.String(),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: id, Tags: tags}, nil
}

func (h InitiateAdditionHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*InitiateAdditionMsg, *vault.Vault, error) {
	var msg InitiateAdditionMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.vaults.Authorize(ctx, db, h.auth, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	live, err := h.ctrl.Live(db, msg.VaultID, msg.Guardian)
	if err != nil {
		return nil, nil, err
	}
	if live != nil {
		switch live.Status {
		case StatusActive:
			return nil, nil, errors.Wrapf(ErrAlreadyActive, "guardian %X", live.ID)
		default:
			return nil, nil, errors.Wrapf(ErrAlreadyPending, "guardian %X", live.ID)
		}
	}
	return &msg, v, nil
}

type ActivateGuardianHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = ActivateGuardianHandler{}

func (h ActivateGuardianHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h ActivateGuardianHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	g, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	g.Status = StatusActive
	if _, err := h.ctrl.guardians.Put(db, g.ID, g); err != nil {
		return nil, errors.Wrap(err, "cannot store guardian")
	}
	var actor keyward.Address
	if signer := x.MainSigner(ctx, h.auth); signer != nil {
		actor = signer.Address()
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: g.VaultID,
		Kind:    audit.GuardianActivated,
		Actor:   actor,
		Subject: g.ID,
		Detail:  g.Address.String(),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h ActivateGuardianHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Guardian, error) {
	var msg ActivateGuardianMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	g, err := h.ctrl.Get(db, msg.GuardianID)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusPending {
		return nil, errors.Wrapf(errors.ErrState, "guardian is %s", g.Status)
	}
	if now := keyward.Now(ctx); now < g.ActivationTime {
		return nil, errors.Wrapf(ErrPendingDelayNotElapsed, "activation at %s, now %s", g.ActivationTime, now)
	}
	return g, nil
}

type CancelGuardianHandler struct {
	auth   x.Authenticator
	vaults vault.Controller
	ctrl   BaseController
}

var _ keyward.Handler = CancelGuardianHandler{}

func (h CancelGuardianHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h CancelGuardianHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	g, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return remove(ctx, db, h.ctrl, g, v.Owner, audit.GuardianCancelled)
}

func (h CancelGuardianHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Guardian, *vault.Vault, error) {
	var msg CancelGuardianMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	g, err := h.ctrl.Get(db, msg.GuardianID)
	if err != nil {
		return nil, nil, err
	}
	v, err := h.vaults.Authorize(ctx, db, h.auth, g.VaultID)
	if err != nil {
		return nil, nil, err
	}
	if g.Status != StatusPending {
		return nil, nil, errors.Wrapf(errors.ErrState, "only pending guardian can be cancelled, guardian is %s", g.Status)
	}
	return g, v, nil
}

type RemoveGuardianHandler struct {
	auth   x.Authenticator
	vaults vault.Controller
	ctrl   BaseController
}

var _ keyward.Handler = RemoveGuardianHandler{}

func (h RemoveGuardianHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h RemoveGuardianHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	g, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return remove(ctx, db, h.ctrl, g, v.Owner, audit.GuardianRemoved)
}

func (h RemoveGuardianHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Guardian, *vault.Vault, error) {
	var msg RemoveGuardianMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.vaults.Authorize(ctx, db, h.auth, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	g, err := h.ctrl.Live(db, msg.VaultID, msg.Guardian)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		return nil, nil, errors.Wrapf(ErrNotActiveGuardian, "%s", msg.Guardian)
	}
	if g.Status != StatusActive {
		return nil, nil, errors.Wrapf(errors.ErrState, "guardian is %s, cancel it instead", g.Status)
	}
	return g, v, nil
}

// remove moves a live guardian record to its terminal state.
func remove(ctx keyward.Context, db keyward.KVStore, ctrl BaseController, g *Guardian, owner keyward.Address, kind audit.Kind) (*keyward.DeliverResult, error) {
	g.Status = StatusRemoved
	g.RemovedAt = keyward.Now(ctx)
	if _, err := ctrl.guardians.Put(db, g.ID, g); err != nil {
		return nil, errors.Wrap(err, "cannot store guardian")
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: g.VaultID,
		Kind:    kind,
		Actor:   owner,
		Subject: g.ID,
		Detail:  g.Address.String(),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

type SetQuorumHandler struct {
	auth   x.Authenticator
	vaults vault.Controller
	ctrl   BaseController
}

var _ keyward.Handler = SetQuorumHandler{}

func (h SetQuorumHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h SetQuorumHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, v, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	q := &Quorum{VaultID: msg.VaultID, Threshold: msg.Threshold}
	if _, err := h.ctrl.quorums.Put(db, msg.VaultID, q); err != nil {
		return nil, errors.Wrap(err, "cannot store quorum")
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: msg.VaultID,
		Kind:    audit.QuorumSet,
		Actor:   v.Owner,
		Detail:  strconv.FormatUint(uint64(msg.Threshold), 10),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h SetQuorumHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*SetQuorumMsg, *vault.Vault, error) {
	var msg SetQuorumMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	v, err := h.vaults.Authorize(ctx, db, h.auth, msg.VaultID)
	if err != nil {
		return nil, nil, err
	}
	return &msg, v, nil
}

package pause

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/vault"
)

// RegisterRoutes registers the pause switch handlers.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator, vaults vault.Controller) {
	h := Handler{auth: auth, vaults: vaults, ctrl: NewController()}
	r.Handle(pathPauseMsg, h)
	r.Handle(pathUnpauseMsg, h)
	r.Handle(pathUpdateReasonMsg, h)
}

// RegisterQuery exposes the current states as "/pausestates" and the
// history as "/pausehistory".
func RegisterQuery(qr keyward.QueryRouter) {
	NewStateBucket().Register("pausestates", qr)
	NewHistoryBucket().Register("pausehistory", qr)
}

// Handler processes all pause switch messages. Only the vault owner can
// change the switch.
type Handler struct {
	auth   x.Authenticator
	vaults vault.Controller
	ctrl   BaseController
}

var _ keyward.Handler = Handler{}

// change is a validated pause switch request.
type change struct {
	state  *PauseState
	owner  keyward.Address
	action Action
	next   Status
	reason string
}

func (h Handler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h Handler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	c, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	rec, err := h.ctrl.transition(ctx, db, c.state, c.owner, c.action, c.next, c.reason)
	if err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		VaultID: rec.VaultID,
		Kind:    auditKind(c.action),
		Actor:   c.owner,
		Subject: recordKey(rec.VaultID, rec.Index),
		Detail:  c.reason,
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h Handler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*change, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "get msg")
	}

	var (
		vaultID []byte
		c       change
	)
	switch m := msg.(type) {
	case *PauseMsg:
		vaultID, c.action, c.next, c.reason = m.VaultID, ActionPause, StatusPaused, m.Reason
	case *UnpauseMsg:
		vaultID, c.action, c.next = m.VaultID, ActionUnpause, StatusActive
	case *UpdateReasonMsg:
		vaultID, c.action, c.next, c.reason = m.VaultID, ActionUpdateReason, StatusPaused, m.Reason
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "unsupported message %T", msg)
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}

	v, err := h.vaults.Authorize(ctx, db, h.auth, vaultID)
	if err != nil {
		return nil, err
	}
	c.owner = v.Owner
	if c.state, err = h.ctrl.State(db, vaultID); err != nil {
		return nil, err
	}

	switch c.action {
	case ActionPause:
		if c.state.Status == StatusPaused {
			return nil, errors.Wrap(errors.ErrState, "vault already paused")
		}
	case ActionUnpause:
		if c.state.Status == StatusActive {
			return nil, errors.Wrap(errors.ErrState, "vault not paused")
		}
	case ActionUpdateReason:
		if c.state.Status != StatusPaused {
			return nil, errors.Wrap(errors.ErrState, "reason can be updated only while paused")
		}
	}
	return &c, nil
}

func auditKind(a Action) audit.Kind {
	switch a {
	case ActionPause:
		return audit.VaultPaused
	case ActionUnpause:
		return audit.VaultUnpaused
	default:
		return audit.PauseReason
	}
}

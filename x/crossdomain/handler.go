package crossdomain

import (
	"encoding/hex"
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/gconf"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/x"
	"github.com/keyward/keyward/x/audit"
	"github.com/keyward/keyward/x/sigs"
)

// RegisterRoutes registers the domain and snapshot handlers.
func RegisterRoutes(r keyward.Registry, auth x.Authenticator) {
	ctrl := NewController()
	r.Handle(pathRegisterDomainMsg, RegisterDomainHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathUpdateAttestorsMsg, UpdateAttestorsHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathSubmitSnapshotMsg, SubmitSnapshotHandler{ctrl: ctrl})
}

// RegisterQuery exposes domains as "/domains" and snapshots as
// "/snapshots". Snapshots can be listed by domain with a prefix query of
// "<domain>/".
func RegisterQuery(qr keyward.QueryRouter) {
	NewDomainBucket().Register("domains", qr)
	NewSnapshotBucket().Register("snapshots", qr)
}

type RegisterDomainHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = RegisterDomainHandler{}

func (h RegisterDomainHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h RegisterDomainHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, admin, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	owner := msg.Owner
	if owner == nil {
		owner = admin
	}
	d := &Domain{
		ID:                    msg.ID,
		Attestors:             msg.Attestors,
		ConfirmationThreshold: msg.ConfirmationThreshold,
		StalenessWindow:       msg.StalenessWindow,
		TreeDepth:             msg.TreeDepth,
		Owner:                 owner,
	}
	if err := h.ctrl.RegisterDomain(db, d); err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		Kind:    audit.DomainRegistered,
		Actor:   admin,
		Subject: []byte(d.ID),
		Detail:  fmt.Sprintf("%d of %d attestors", d.ConfirmationThreshold, len(d.Attestors)),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: []byte(d.ID), Tags: tags}, nil
}

func (h RegisterDomainHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*RegisterDomainMsg, keyward.Address, error) {
	var msg RegisterDomainMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	policy, err := gconf.LoadPolicy(db)
	if err != nil {
		return nil, nil, errors.Wrap(err, "policy")
	}
	if err := x.RequireSigners(ctx, h.auth, policy.DomainAdmin); err != nil {
		return nil, nil, errors.Wrap(err, "domain admin")
	}
	switch err := h.ctrl.domains.Has(db, []byte(msg.ID)); {
	case err == nil:
		return nil, nil, errors.Wrapf(errors.ErrDuplicate, "domain %q", msg.ID)
	case !errors.ErrNotFound.Is(err):
		return nil, nil, err
	}
	return &msg, policy.DomainAdmin, nil
}

type UpdateAttestorsHandler struct {
	auth x.Authenticator
	ctrl BaseController
}

var _ keyward.Handler = UpdateAttestorsHandler{}

func (h UpdateAttestorsHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h UpdateAttestorsHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	msg, d, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	d.Attestors = msg.Attestors
	d.ConfirmationThreshold = msg.ConfirmationThreshold
	if _, err := h.ctrl.domains.Put(db, []byte(d.ID), d); err != nil {
		return nil, errors.Wrap(err, "cannot store domain")
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		Kind:    audit.AttestorsUpdated,
		Actor:   d.Owner,
		Subject: []byte(d.ID),
		Detail:  fmt.Sprintf("%d of %d attestors", d.ConfirmationThreshold, len(d.Attestors)),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Tags: tags}, nil
}

func (h UpdateAttestorsHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*UpdateAttestorsMsg, *Domain, error) {
	var msg UpdateAttestorsMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	d, err := h.ctrl.Domain(db, msg.DomainID)
	if err != nil {
		return nil, nil, err
	}
	if err := x.RequireSigners(ctx, h.auth, d.Owner); err != nil {
		return nil, nil, errors.Wrap(err, "domain owner")
	}
	return &msg, d, nil
}

// SubmitSnapshotHandler accepts snapshots from any relay. Trust comes from
// the attestations only.
type SubmitSnapshotHandler struct {
	ctrl BaseController
}

var _ keyward.Handler = SubmitSnapshotHandler{}

func (h SubmitSnapshotHandler) Check(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &keyward.CheckResult{}, nil
}

func (h SubmitSnapshotHandler) Deliver(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*keyward.DeliverResult, error) {
	snap, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	key, err := h.ctrl.RegisterSnapshot(db, snap)
	if err != nil {
		return nil, err
	}
	tags, err := audit.Emit(ctx, db, audit.Event{
		Kind:    audit.SnapshotRegistered,
		Subject: key,
		Detail: fmt.Sprintf("%s #%d root %s depth %d",
			snap.DomainID, snap.Sequence, hex.EncodeToString(snap.Root), snap.Depth),
	})
	if err != nil {
		return nil, err
	}
	return &keyward.DeliverResult{Data: orm.EncodeSequence(snap.Sequence), Tags: tags}, nil
}

// validate returns the snapshot that the message registers.
func (h SubmitSnapshotHandler) validate(ctx keyward.Context, db keyward.KVStore, tx keyward.Tx) (*Snapshot, error) {
	var msg SubmitSnapshotMsg
	if err := keyward.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	d, err := h.ctrl.Domain(db, msg.DomainID)
	if err != nil {
		return nil, err
	}
	if msg.Depth > d.TreeDepth {
		return nil, errors.Wrapf(errors.ErrInput, "depth %d exceeds %d", msg.Depth, d.TreeDepth)
	}

	now := keyward.Now(ctx)
	if msg.Timestamp > now {
		return nil, errors.Wrapf(errors.ErrState, "snapshot from the future %s", msg.Timestamp)
	}
	seq := int64(1)
	switch prev, err := h.ctrl.CurrentSnapshot(db, msg.DomainID); {
	case err == nil:
		if msg.Timestamp <= prev.ValidFrom {
			return nil, errors.Wrapf(errors.ErrState, "snapshot %s not newer than %s", msg.Timestamp, prev.ValidFrom)
		}
		seq = prev.Sequence + 1
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}

	attestors, err := h.attestors(d, msg.Digest(), msg.Attestations)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		DomainID:     msg.DomainID,
		Sequence:     seq,
		Root:         msg.Root,
		Depth:        msg.Depth,
		ValidFrom:    msg.Timestamp,
		RegisteredAt: now,
		Attestors:    attestors,
	}, nil
}

// attestors recovers the signers of the digest and requires that they are
// distinct members of the attestor set and reach the threshold.
func (h SubmitSnapshotHandler) attestors(d *Domain, digest []byte, attestations [][]byte) ([]keyward.Address, error) {
	signers, dups, err := sigs.BatchRecover(digest, attestations)
	if err != nil {
		return nil, errors.Wrap(err, "attestation")
	}
	if len(dups) != 0 {
		return nil, errors.Wrapf(sigs.ErrDuplicateSigner, "attestation %d", dups[0])
	}
	for _, s := range signers {
		if !d.IsAttestor(s) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not an attestor of %q", s, d.ID)
		}
	}
	if uint32(len(signers)) < d.ConfirmationThreshold {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%d of %d attestations", len(signers), d.ConfirmationThreshold)
	}
	return signers, nil
}

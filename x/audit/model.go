package audit

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Kind names the state transition an event describes.
type Kind string

const (
	GuardianAdded     Kind = "guardian_added"
	GuardianActivated Kind = "guardian_activated"
	GuardianCancelled Kind = "guardian_cancelled"
	GuardianRemoved   Kind = "guardian_removed"
	QuorumSet         Kind = "quorum_set"

	VaultPaused   Kind = "vault_paused"
	VaultUnpaused Kind = "vault_unpaused"
	PauseReason   Kind = "pause_reason_updated"

	ProposalCreated  Kind = "proposal_created"
	ProposalVoted    Kind = "proposal_voted"
	ProposalApproved Kind = "proposal_approved"
	ProposalExecuted Kind = "proposal_executed"
	ProposalRejected Kind = "proposal_rejected"
	ProposalExpired  Kind = "proposal_expired"

	VaultCreated       Kind = "vault_created"
	VaultDeposit       Kind = "vault_deposit"
	VaultConfigUpdated Kind = "vault_config_updated"

	DomainRegistered   Kind = "domain_registered"
	AttestorsUpdated   Kind = "attestors_updated"
	SnapshotRegistered Kind = "snapshot_registered"

	PolicyUpdated Kind = "policy_updated"
)

var kinds = map[Kind]struct{}{
	GuardianAdded: {}, GuardianActivated: {}, GuardianCancelled: {}, GuardianRemoved: {}, QuorumSet: {},
	VaultPaused: {}, VaultUnpaused: {}, PauseReason: {},
	ProposalCreated: {}, ProposalVoted: {}, ProposalApproved: {}, ProposalExecuted: {}, ProposalRejected: {}, ProposalExpired: {},
	VaultCreated: {}, VaultDeposit: {}, VaultConfigUpdated: {},
	DomainRegistered: {}, AttestorsUpdated: {}, SnapshotRegistered: {},
	PolicyUpdated: {},
}

// Event is a single entry of the audit log.
type Event struct {
	Index int64 `json:"index"`
	// VaultID is empty for events that are not bound to a vault, for
	// example a remote domain registration.
	VaultID []byte          `json:"vault_id"`
	Kind    Kind            `json:"kind"`
	Actor   keyward.Address `json:"actor"`
	// Subject is the key of the entity the event is about (a guardian,
	// a proposal or a snapshot).
	Subject []byte           `json:"subject"`
	Detail  string           `json:"detail"`
	Height  int64            `json:"height"`
	Time    keyward.UnixTime `json:"time"`
}

var _ orm.Model = (*Event)(nil)

func (e *Event) Marshal() ([]byte, error) {
	return codec.Marshal(e)
}

func (e *Event) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, e)
}

func (e *Event) Validate() error {
	var errs error
	if e.Index <= 0 {
		errs = errors.Append(errs, errors.Field("Index", errors.ErrInput, "must be positive"))
	}
	if _, ok := kinds[e.Kind]; !ok {
		errs = errors.Append(errs, errors.Field("Kind", errors.ErrInput, "unknown kind %q", e.Kind))
	}
	if e.Actor != nil {
		errs = errors.AppendField(errs, "Actor", e.Actor.Validate())
	}
	if e.Time <= 0 {
		errs = errors.Append(errs, errors.Field("Time", errors.ErrEmpty, "required"))
	}
	return errs
}

var eventSeq = orm.NewSequence("audit", "index")

// NewBucket returns the bucket holding the audit log.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("audit", &Event{},
		orm.WithIDSequence(eventSeq),
		orm.WithIndex("vault", vaultIndex, false),
	)
}

func vaultIndex(obj orm.Object) ([]byte, error) {
	e, ok := obj.Value().(*Event)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	// Events without a vault are not indexed.
	if len(e.VaultID) == 0 {
		return nil, nil
	}
	return e.VaultID, nil
}

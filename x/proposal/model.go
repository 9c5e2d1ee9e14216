package proposal

import (
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/x/vault"
)

// Kind tells a single transfer from a batch.
type Kind int32

const (
	KindSingle Kind = iota + 1
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "SINGLE"
	case KindBatch:
		return "BATCH"
	default:
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
}

// Status is the lifecycle state of a proposal. Transitions only move
// forward.
type Status int32

const (
	StatusPending Status = iota + 1
	StatusApproved
	StatusExecuted
	StatusRejected
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusApproved:
		return "APPROVED"
	case StatusExecuted:
		return "EXECUTED"
	case StatusRejected:
		return "REJECTED"
	case StatusExpired:
		return "EXPIRED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Proposal is a withdrawal awaiting guardian approval.
type Proposal struct {
	ID             []byte           `json:"id"`
	VaultID        []byte           `json:"vault_id"`
	Kind           Kind             `json:"kind"`
	Transfers      []vault.Transfer `json:"transfers"`
	Reason         string           `json:"reason"`
	Author         keyward.Address  `json:"author"`
	CreatedAt      keyward.UnixTime `json:"created_at"`
	VotingDeadline keyward.UnixTime `json:"voting_deadline"`
	LocalVotes     uint32           `json:"local_votes"`
	RemoteVotes    uint32           `json:"remote_votes"`
	// ApprovalWeight is the sum of the weights of all votes.
	ApprovalWeight keyward.Fraction `json:"approval_weight"`
	Status         Status           `json:"status"`
	ApprovedAt     keyward.UnixTime `json:"approved_at"`
	ExecutedAt     keyward.UnixTime `json:"executed_at"`
	// ClosedAt is set when the proposal reaches a final state.
	ClosedAt    keyward.UnixTime `json:"closed_at"`
	CloseReason string           `json:"close_reason"`
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Marshal() ([]byte, error) {
	return codec.Marshal(p)
}

func (p *Proposal) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, p)
}

func (p *Proposal) Validate() error {
	var errs error
	if len(p.ID) != 8 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "must be 8 bytes"))
	}
	if len(p.VaultID) != 8 {
		errs = errors.Append(errs, errors.Field("VaultID", errors.ErrInput, "must be 8 bytes"))
	}
	switch p.Kind {
	case KindSingle:
		if len(p.Transfers) != 1 {
			errs = errors.Append(errs, errors.Field("Transfers", errors.ErrInput, "single proposal with %d transfers", len(p.Transfers)))
		}
	case KindBatch:
		if len(p.Transfers) == 0 {
			errs = errors.Append(errs, errors.Field("Transfers", errors.ErrEmpty, "required"))
		}
	default:
		errs = errors.Append(errs, errors.Field("Kind", errors.ErrInput, "invalid kind %s", p.Kind))
	}
	for i, t := range p.Transfers {
		errs = errors.AppendField(errs, fmt.Sprintf("Transfers.%d", i), t.Validate())
	}
	errs = errors.AppendField(errs, "Author", p.Author.Validate())
	errs = errors.AppendField(errs, "CreatedAt", p.CreatedAt.Validate())
	if p.VotingDeadline <= p.CreatedAt {
		errs = errors.Append(errs, errors.Field("VotingDeadline", errors.ErrState, "not after creation"))
	}
	errs = errors.AppendField(errs, "ApprovalWeight", p.ApprovalWeight.Validate())
	switch p.Status {
	case StatusPending:
	case StatusApproved:
		if p.ApprovedAt == 0 {
			errs = errors.Append(errs, errors.Field("ApprovedAt", errors.ErrEmpty, "required"))
		}
	case StatusExecuted:
		if p.ExecutedAt == 0 {
			errs = errors.Append(errs, errors.Field("ExecutedAt", errors.ErrEmpty, "required"))
		}
	case StatusRejected, StatusExpired:
		if p.ClosedAt == 0 {
			errs = errors.Append(errs, errors.Field("ClosedAt", errors.ErrEmpty, "required"))
		}
	default:
		errs = errors.Append(errs, errors.Field("Status", errors.ErrState, "invalid status %s", p.Status))
	}
	return errs
}

// votingOpen returns true while votes are accepted at the given time.
func (p *Proposal) votingOpen(now keyward.UnixTime) bool {
	return now <= p.VotingDeadline
}

// Vote is a single counted ballot. Domain is crossdomain.LocalDomain for
// guardians of the vault and the remote domain ID otherwise.
type Vote struct {
	ProposalID []byte           `json:"proposal_id"`
	Voter      keyward.Address  `json:"voter"`
	Domain     string           `json:"domain"`
	Weight     keyward.Fraction `json:"weight"`
	CastAt     keyward.UnixTime `json:"cast_at"`
}

var _ orm.Model = (*Vote)(nil)

func (v *Vote) Marshal() ([]byte, error) {
	return codec.Marshal(v)
}

func (v *Vote) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, v)
}

func (v *Vote) Validate() error {
	var errs error
	if len(v.ProposalID) != 8 {
		errs = errors.Append(errs, errors.Field("ProposalID", errors.ErrInput, "must be 8 bytes"))
	}
	errs = errors.AppendField(errs, "Voter", v.Voter.Validate())
	if v.Domain == "" {
		errs = errors.Append(errs, errors.Field("Domain", errors.ErrEmpty, "required"))
	}
	if err := v.Weight.Validate(); err != nil {
		errs = errors.AppendField(errs, "Weight", err)
	} else if v.Weight.IsZero() {
		errs = errors.Append(errs, errors.Field("Weight", errors.ErrInput, "must not be zero"))
	}
	errs = errors.AppendField(errs, "CastAt", v.CastAt.Validate())
	return errs
}

// voteKey allows a single vote per voter and proposal regardless of the
// domain the voter belongs to.
func voteKey(proposalID []byte, voter keyward.Address) []byte {
	key := make([]byte, 0, len(proposalID)+len(voter))
	key = append(key, proposalID...)
	return append(key, voter...)
}

var proposalSeq = orm.NewSequence("proposal", "id")

// NewProposalBucket returns the bucket of proposals, indexed by vault.
func NewProposalBucket() orm.ModelBucket {
	return orm.NewModelBucket("proposal", &Proposal{},
		orm.WithIDSequence(proposalSeq),
		orm.WithIndex("vault", vaultIndex, false),
	)
}

func vaultIndex(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	p, ok := obj.Value().(*Proposal)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return p.VaultID, nil
}

// NewVoteBucket returns the bucket of votes keyed by proposal and voter.
func NewVoteBucket() orm.ModelBucket {
	return orm.NewModelBucket("vote", &Vote{})
}

package guardian

import (
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Status is the lifecycle state of a guardian record.
type Status int32

const (
	StatusNone Status = iota
	StatusPending
	StatusActive
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusPending:
		return "PENDING"
	case StatusActive:
		return "ACTIVE"
	case StatusRemoved:
		return "REMOVED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// live returns true for records that block adding the same address again.
func (s Status) live() bool {
	return s == StatusPending || s == StatusActive
}

// Guardian is a single membership record of an address in a vault.
type Guardian struct {
	ID             []byte           `json:"id"`
	VaultID        []byte           `json:"vault_id"`
	Address        keyward.Address  `json:"address"`
	Status         Status           `json:"status"`
	ActivationTime keyward.UnixTime `json:"activation_time"`
	AddedAt        keyward.UnixTime `json:"added_at"`
	AddedBy        keyward.Address  `json:"added_by"`
	RemovedAt      keyward.UnixTime `json:"removed_at"`
}

var _ orm.Model = (*Guardian)(nil)

func (g *Guardian) Marshal() ([]byte, error) {
	return codec.Marshal(g)
}

func (g *Guardian) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, g)
}

func (g *Guardian) Validate() error {
	var errs error
	if len(g.ID) != 8 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "must be 8 bytes"))
	}
	if len(g.VaultID) != 8 {
		errs = errors.Append(errs, errors.Field("VaultID", errors.ErrInput, "must be 8 bytes"))
	}
	errs = errors.AppendField(errs, "Address", g.Address.Validate())
	errs = errors.AppendField(errs, "AddedBy", g.AddedBy.Validate())
	switch g.Status {
	case StatusPending, StatusActive:
		if g.RemovedAt != 0 {
			errs = errors.Append(errs, errors.Field("RemovedAt", errors.ErrState, "set on a live guardian"))
		}
	case StatusRemoved:
		if g.RemovedAt == 0 {
			errs = errors.Append(errs, errors.Field("RemovedAt", errors.ErrEmpty, "required"))
		}
	default:
		errs = errors.Append(errs, errors.Field("Status", errors.ErrState, "invalid status %s", g.Status))
	}
	if g.AddedAt == 0 {
		errs = errors.Append(errs, errors.Field("AddedAt", errors.ErrEmpty, "required"))
	}
	if g.ActivationTime < g.AddedAt {
		errs = errors.Append(errs, errors.Field("ActivationTime", errors.ErrState, "before addition"))
	}
	return errs
}

// Quorum is the weighted approval total required by proposals of a vault.
type Quorum struct {
	VaultID   []byte `json:"vault_id"`
	Threshold uint32 `json:"threshold"`
}

var _ orm.Model = (*Quorum)(nil)

func (q *Quorum) Marshal() ([]byte, error) {
	return codec.Marshal(q)
}

func (q *Quorum) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, q)
}

func (q *Quorum) Validate() error {
	var errs error
	if len(q.VaultID) != 8 {
		errs = errors.Append(errs, errors.Field("VaultID", errors.ErrInput, "must be 8 bytes"))
	}
	if q.Threshold < 1 {
		errs = errors.Append(errs, errors.Field("Threshold", errors.ErrInput, "must be at least 1"))
	}
	return errs
}

var guardianSeq = orm.NewSequence("guardian", "id")

// NewGuardianBucket returns the bucket of guardian records. The "live"
// index is unique and references only pending and active records.
func NewGuardianBucket() orm.ModelBucket {
	return orm.NewModelBucket("guardian", &Guardian{},
		orm.WithIDSequence(guardianSeq),
		orm.WithIndex("live", liveIndex, true),
		orm.WithIndex("vault", vaultIndex, false),
	)
}

// liveKey is the index value of a guardian address within a vault.
func liveKey(vaultID []byte, addr keyward.Address) []byte {
	key := make([]byte, 0, len(vaultID)+len(addr))
	key = append(key, vaultID...)
	return append(key, addr...)
}

func liveIndex(obj orm.Object) ([]byte, error) {
	g, err := asGuardian(obj)
	if err != nil {
		return nil, err
	}
	if !g.Status.live() {
		return nil, nil
	}
	return liveKey(g.VaultID, g.Address), nil
}

func vaultIndex(obj orm.Object) ([]byte, error) {
	g, err := asGuardian(obj)
	if err != nil {
		return nil, err
	}
	return g.VaultID, nil
}

func asGuardian(obj orm.Object) (*Guardian, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	g, ok := obj.Value().(*Guardian)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return g, nil
}

// NewQuorumBucket returns the bucket of vault thresholds keyed by vault ID.
func NewQuorumBucket() orm.ModelBucket {
	return orm.NewModelBucket("quorum", &Quorum{})
}

package pause

import (
	"fmt"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Status of a vault pause switch. A vault without a stored state is active.
type Status int32

const (
	StatusActive Status = iota
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusPaused:
		return "PAUSED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Action names the operation that produced a history record.
type Action string

const (
	ActionPause        Action = "pause"
	ActionUnpause      Action = "unpause"
	ActionUpdateReason Action = "update_reason"
)

const maxReasonLength = 512

// PauseState is the current pause switch of a vault.
type PauseState struct {
	VaultID    []byte           `json:"vault_id"`
	Status     Status           `json:"status"`
	Reason     string           `json:"reason"`
	PausedAt   keyward.UnixTime `json:"paused_at"`
	HistoryLen int64            `json:"history_len"`
}

var _ orm.Model = (*PauseState)(nil)

func (s *PauseState) Marshal() ([]byte, error) {
	return codec.Marshal(s)
}

func (s *PauseState) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, s)
}

func (s *PauseState) Validate() error {
	var errs error
	if len(s.VaultID) != 8 {
		errs = errors.Append(errs, errors.Field("VaultID", errors.ErrInput, "must be 8 bytes"))
	}
	switch s.Status {
	case StatusActive:
		if s.PausedAt != 0 {
			errs = errors.Append(errs, errors.Field("PausedAt", errors.ErrState, "set on an active vault"))
		}
	case StatusPaused:
		if s.PausedAt == 0 {
			errs = errors.Append(errs, errors.Field("PausedAt", errors.ErrEmpty, "required"))
		}
	default:
		errs = errors.Append(errs, errors.Field("Status", errors.ErrState, "invalid status %s", s.Status))
	}
	if len(s.Reason) > maxReasonLength {
		errs = errors.Append(errs, errors.Field("Reason", errors.ErrInput, "too long"))
	}
	if s.HistoryLen < 0 {
		errs = errors.Append(errs, errors.Field("HistoryLen", errors.ErrInput, "negative"))
	}
	return errs
}

// PauseRecord is a single entry of the pause history of a vault.
type PauseRecord struct {
	VaultID   []byte           `json:"vault_id"`
	Index     int64            `json:"index"`
	Initiator keyward.Address  `json:"initiator"`
	Action    Action           `json:"action"`
	Reason    string           `json:"reason"`
	Timestamp keyward.UnixTime `json:"timestamp"`
	Previous  Status           `json:"previous"`
	Next      Status           `json:"next"`
}

var _ orm.Model = (*PauseRecord)(nil)

func (r *PauseRecord) Marshal() ([]byte, error) {
	return codec.Marshal(r)
}

func (r *PauseRecord) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, r)
}

func (r *PauseRecord) Validate() error {
	var errs error
	if len(r.VaultID) != 8 {
		errs = errors.Append(errs, errors.Field("VaultID", errors.ErrInput, "must be 8 bytes"))
	}
	if r.Index < 1 {
		errs = errors.Append(errs, errors.Field("Index", errors.ErrInput, "must be positive"))
	}
	errs = errors.AppendField(errs, "Initiator", r.Initiator.Validate())
	switch r.Action {
	case ActionPause, ActionUnpause, ActionUpdateReason:
	default:
		errs = errors.Append(errs, errors.Field("Action", errors.ErrInput, "unknown action %q", r.Action))
	}
	if r.Timestamp == 0 {
		errs = errors.Append(errs, errors.Field("Timestamp", errors.ErrEmpty, "required"))
	}
	return errs
}

// recordKey orders the records of a vault by index.
func recordKey(vaultID []byte, index int64) []byte {
	return append(append([]byte{}, vaultID...), orm.EncodeSequence(index)...)
}

// NewStateBucket returns the bucket of pause states keyed by vault ID.
func NewStateBucket() orm.ModelBucket {
	return orm.NewModelBucket("pausestate", &PauseState{})
}

// NewHistoryBucket returns the bucket of pause records keyed by vault ID and
// record index.
func NewHistoryBucket() orm.ModelBucket {
	return orm.NewModelBucket("pauselog", &PauseRecord{})
}

package pause

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Controller gives other extensions read access to the pause switch.
type Controller interface {
	// IsPaused returns true if withdrawals from the vault are halted.
	IsPaused(db keyward.ReadOnlyKVStore, vaultID []byte) (bool, error)
	// RequireActive returns ErrVaultPaused if the vault is paused.
	RequireActive(db keyward.ReadOnlyKVStore, vaultID []byte) error
}

// BaseController is the bucket backed Controller.
type BaseController struct {
	states  orm.ModelBucket
	history orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		states:  NewStateBucket(),
		history: NewHistoryBucket(),
	}
}

// State returns the pause state of the vault. A vault that was never paused
// is active.
func (c BaseController) State(db keyward.ReadOnlyKVStore, vaultID []byte) (*PauseState, error) {
	var s PauseState
	switch err := c.states.One(db, vaultID, &s); {
	case err == nil:
		return &s, nil
	case errors.ErrNotFound.Is(err):
		return &PauseState{VaultID: vaultID, Status: StatusActive}, nil
	default:
		return nil, err
	}
}

func (c BaseController) IsPaused(db keyward.ReadOnlyKVStore, vaultID []byte) (bool, error) {
	s, err := c.State(db, vaultID)
	if err != nil {
		return false, err
	}
	return s.Status == StatusPaused, nil
}

func (c BaseController) RequireActive(db keyward.ReadOnlyKVStore, vaultID []byte) error {
	s, err := c.State(db, vaultID)
	if err != nil {
		return err
	}
	if s.Status == StatusPaused {
		return errors.Wrapf(ErrVaultPaused, "%s", s.Reason)
	}
	return nil
}

// History returns all pause records of the vault, oldest first.
func (c BaseController) History(db keyward.ReadOnlyKVStore, vaultID []byte) ([]*PauseRecord, error) {
	it, err := c.history.PrefixScan(db, vaultID, false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var records []*PauseRecord
	for {
		var r PauseRecord
		switch _, err := it.LoadNext(&r); {
		case err == nil:
			records = append(records, &r)
		case errors.ErrIteratorDone.Is(err):
			return records, nil
		default:
			return nil, err
		}
	}
}

// transition stores the new state and appends a history record describing
// the change.
func (c BaseController) transition(ctx keyward.Context, db keyward.KVStore, s *PauseState, initiator keyward.Address, action Action, next Status, reason string) (*PauseRecord, error) {
	now := keyward.Now(ctx)
	rec := &PauseRecord{
		VaultID:   s.VaultID,
		Index:     s.HistoryLen + 1,
		Initiator: initiator,
		Action:    action,
		Reason:    reason,
		Timestamp: now,
		Previous:  s.Status,
		Next:      next,
	}
	if _, err := c.history.Put(db, recordKey(s.VaultID, rec.Index), rec); err != nil {
		return nil, errors.Wrap(err, "cannot store pause record")
	}

	s.HistoryLen = rec.Index
	s.Reason = reason
	switch {
	case next == StatusActive:
		s.PausedAt = 0
	case s.Status == StatusActive:
		s.PausedAt = now
	}
	s.Status = next
	if _, err := c.states.Put(db, s.VaultID, s); err != nil {
		return nil, errors.Wrap(err, "cannot store pause state")
	}
	return rec, nil
}

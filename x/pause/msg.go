package pause

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

func init() {
	codec.RegisterMsg(&PauseMsg{}, "keyward/pause/PauseMsg")
	codec.RegisterMsg(&UnpauseMsg{}, "keyward/pause/UnpauseMsg")
	codec.RegisterMsg(&UpdateReasonMsg{}, "keyward/pause/UpdateReasonMsg")
}

const (
	pathPauseMsg        = "pause/pause"
	pathUnpauseMsg      = "pause/unpause"
	pathUpdateReasonMsg = "pause/update_reason"
)

// PauseMsg halts withdrawals from a vault.
type PauseMsg struct {
	VaultID []byte `json:"vault_id"`
	Reason  string `json:"reason"`
}

var _ keyward.Msg = (*PauseMsg)(nil)

func (m *PauseMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *PauseMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (PauseMsg) Path() string                  { return pathPauseMsg }

func (m *PauseMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Reason", validateReason(m.Reason))
	return errs
}

// UnpauseMsg resumes withdrawals from a vault.
type UnpauseMsg struct {
	VaultID []byte `json:"vault_id"`
}

var _ keyward.Msg = (*UnpauseMsg)(nil)

func (m *UnpauseMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *UnpauseMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (UnpauseMsg) Path() string                  { return pathUnpauseMsg }

func (m *UnpauseMsg) Validate() error {
	return errors.AppendField(nil, "VaultID", validateID(m.VaultID))
}

// UpdateReasonMsg changes the reason given for a pause.
type UpdateReasonMsg struct {
	VaultID []byte `json:"vault_id"`
	Reason  string `json:"reason"`
}

var _ keyward.Msg = (*UpdateReasonMsg)(nil)

func (m *UpdateReasonMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *UpdateReasonMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (UpdateReasonMsg) Path() string                  { return pathUpdateReasonMsg }

func (m *UpdateReasonMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Reason", validateReason(m.Reason))
	return errs
}

func validateID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "want 8 bytes, got %d", len(id))
	}
	return nil
}

func validateReason(r string) error {
	switch {
	case r == "":
		return errors.ErrEmpty
	case len(r) > maxReasonLength:
		return errors.Wrapf(errors.ErrInput, "longer than %d", maxReasonLength)
	}
	return nil
}

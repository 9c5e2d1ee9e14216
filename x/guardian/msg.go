package guardian

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

func init() {
	codec.RegisterMsg(&InitiateAdditionMsg{}, "keyward/guardian/InitiateAdditionMsg")
	codec.RegisterMsg(&ActivateGuardianMsg{}, "keyward/guardian/ActivateGuardianMsg")
	codec.RegisterMsg(&CancelGuardianMsg{}, "keyward/guardian/CancelGuardianMsg")
	codec.RegisterMsg(&RemoveGuardianMsg{}, "keyward/guardian/RemoveGuardianMsg")
	codec.RegisterMsg(&SetQuorumMsg{}, "keyward/guardian/SetQuorumMsg")
}

const (
	pathInitiateAdditionMsg = "guardian/initiate_addition"
	pathActivateGuardianMsg = "guardian/activate"
	pathCancelGuardianMsg   = "guardian/cancel"
	pathRemoveGuardianMsg   = "guardian/remove"
	pathSetQuorumMsg        = "guardian/set_quorum"
)

// InitiateAdditionMsg adds a pending guardian to a vault. When Delay is not
// set, the activation delay configured for the vault applies.
type InitiateAdditionMsg struct {
	VaultID  []byte                `json:"vault_id"`
	Guardian keyward.Address       `json:"guardian"`
	Delay    *keyward.UnixDuration `json:"delay,omitempty"`
}

var _ keyward.Msg = (*InitiateAdditionMsg)(nil)

func (m *InitiateAdditionMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *InitiateAdditionMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (InitiateAdditionMsg) Path() string                  { return pathInitiateAdditionMsg }

func (m *InitiateAdditionMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Guardian", m.Guardian.Validate())
	if m.Delay != nil {
		errs = errors.AppendField(errs, "Delay", m.Delay.Validate())
	}
	return errs
}

// ActivateGuardianMsg activates a pending guardian once its delay elapsed.
// Anyone can send it.
type ActivateGuardianMsg struct {
	GuardianID []byte `json:"guardian_id"`
}

var _ keyward.Msg = (*ActivateGuardianMsg)(nil)

func (m *ActivateGuardianMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *ActivateGuardianMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (ActivateGuardianMsg) Path() string                  { return pathActivateGuardianMsg }

func (m *ActivateGuardianMsg) Validate() error {
	return errors.AppendField(nil, "GuardianID", validateID(m.GuardianID))
}

// CancelGuardianMsg removes a guardian that is still pending.
type CancelGuardianMsg struct {
	GuardianID []byte `json:"guardian_id"`
}

var _ keyward.Msg = (*CancelGuardianMsg)(nil)

func (m *CancelGuardianMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *CancelGuardianMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (CancelGuardianMsg) Path() string                  { return pathCancelGuardianMsg }

func (m *CancelGuardianMsg) Validate() error {
	return errors.AppendField(nil, "GuardianID", validateID(m.GuardianID))
}

// RemoveGuardianMsg removes an active guardian immediately.
type RemoveGuardianMsg struct {
	VaultID  []byte          `json:"vault_id"`
	Guardian keyward.Address `json:"guardian"`
}

var _ keyward.Msg = (*RemoveGuardianMsg)(nil)

func (m *RemoveGuardianMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *RemoveGuardianMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (RemoveGuardianMsg) Path() string                  { return pathRemoveGuardianMsg }

func (m *RemoveGuardianMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Guardian", m.Guardian.Validate())
	return errs
}

// SetQuorumMsg sets the approval threshold of a vault.
type SetQuorumMsg struct {
	VaultID   []byte `json:"vault_id"`
	Threshold uint32 `json:"threshold"`
}

var _ keyward.Msg = (*SetQuorumMsg)(nil)

func (m *SetQuorumMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *SetQuorumMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (SetQuorumMsg) Path() string                  { return pathSetQuorumMsg }

func (m *SetQuorumMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	if m.Threshold < 1 {
		errs = errors.Append(errs, errors.Field("Threshold", errors.ErrInput, "must be at least 1"))
	}
	return errs
}

func validateID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "want 8 bytes, got %d", len(id))
	}
	return nil
}

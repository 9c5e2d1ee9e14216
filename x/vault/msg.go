package vault

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/errors"
)

func init() {
	codec.RegisterMsg(&CreateVaultMsg{}, "keyward/vault/CreateVaultMsg")
	codec.RegisterMsg(&DepositMsg{}, "keyward/vault/DepositMsg")
	codec.RegisterMsg(&UpdateConfigMsg{}, "keyward/vault/UpdateConfigMsg")
}

const (
	pathCreateVaultMsg  = "vault/create"
	pathDepositMsg      = "vault/deposit"
	pathUpdateConfigMsg = "vault/update_config"
)

// CreateVaultMsg opens a new empty vault. When Owner is not set, the main
// signer becomes the owner.
type CreateVaultMsg struct {
	Name   string          `json:"name"`
	Owner  keyward.Address `json:"owner"`
	Config VaultConfig     `json:"config"`
}

var _ keyward.Msg = (*CreateVaultMsg)(nil)

func (m *CreateVaultMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *CreateVaultMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (CreateVaultMsg) Path() string                  { return pathCreateVaultMsg }

func (m *CreateVaultMsg) Validate() error {
	var errs error
	if m.Name == "" || len(m.Name) > maxNameLength {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "length must be between 1 and %d", maxNameLength))
	}
	if m.Owner != nil {
		errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	}
	errs = errors.AppendField(errs, "Config", m.Config.Validate())
	return errs
}

// DepositMsg adds funds to a vault.
type DepositMsg struct {
	VaultID []byte    `json:"vault_id"`
	Amount  coin.Coin `json:"amount"`
}

var _ keyward.Msg = (*DepositMsg)(nil)

func (m *DepositMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *DepositMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (DepositMsg) Path() string                  { return pathDepositMsg }

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// UpdateConfigMsg replaces the configuration of a vault.
type UpdateConfigMsg struct {
	VaultID []byte      `json:"vault_id"`
	Config  VaultConfig `json:"config"`
}

var _ keyward.Msg = (*UpdateConfigMsg)(nil)

func (m *UpdateConfigMsg) Marshal() ([]byte, error)   { return codec.Marshal(m) }
func (m *UpdateConfigMsg) Unmarshal(raw []byte) error { return codec.Unmarshal(raw, m) }
func (UpdateConfigMsg) Path() string                  { return pathUpdateConfigMsg }

func (m *UpdateConfigMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "VaultID", validateID(m.VaultID))
	errs = errors.AppendField(errs, "Config", m.Config.Validate())
	return errs
}

// validateID checks a sequence generated key.
func validateID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "want 8 bytes, got %d", len(id))
	}
	return nil
}

package vault

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

const maxNameLength = 128

// Vault holds assets on behalf of its owner.
type Vault struct {
	ID        []byte           `json:"id"`
	Name      string           `json:"name"`
	Owner     keyward.Address  `json:"owner"`
	Balances  coin.Coins       `json:"balances"`
	Config    VaultConfig      `json:"config"`
	CreatedAt keyward.UnixTime `json:"created_at"`
}

var _ orm.Model = (*Vault)(nil)

func (v *Vault) Marshal() ([]byte, error) {
	return codec.Marshal(v)
}

func (v *Vault) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, v)
}

func (v *Vault) Validate() error {
	var errs error
	if len(v.ID) != 8 {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "must be 8 bytes"))
	}
	if v.Name == "" || len(v.Name) > maxNameLength {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "length must be between 1 and %d", maxNameLength))
	}
	errs = errors.AppendField(errs, "Owner", v.Owner.Validate())
	errs = errors.AppendField(errs, "Balances", v.Balances.Validate())
	if !v.Balances.IsNonNegative() {
		errs = errors.Append(errs, errors.Field("Balances", errors.ErrAmount, "negative balance"))
	}
	errs = errors.AppendField(errs, "Config", v.Config.Validate())
	if err := v.CreatedAt.Validate(); err != nil {
		errs = errors.AppendField(errs, "CreatedAt", err)
	} else if v.CreatedAt == 0 {
		errs = errors.Append(errs, errors.Field("CreatedAt", errors.ErrEmpty, "required"))
	}
	return errs
}

// VaultConfig overrides the global policy for a single vault. Zero values
// mean the policy default applies.
type VaultConfig struct {
	ActivationDelay   keyward.UnixDuration `json:"activation_delay"`
	VotingWindow      keyward.UnixDuration `json:"voting_window"`
	BatchVotingWindow keyward.UnixDuration `json:"batch_voting_window"`
	RemoteWeight      keyward.Fraction     `json:"remote_weight"`
}

func (c VaultConfig) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ActivationDelay", c.ActivationDelay.Validate())
	errs = errors.AppendField(errs, "VotingWindow", c.VotingWindow.Validate())
	errs = errors.AppendField(errs, "BatchVotingWindow", c.BatchVotingWindow.Validate())
	errs = errors.AppendField(errs, "RemoteWeight", c.RemoteWeight.Validate())
	return errs
}

// Wallet holds the funds withdrawn from vaults for a single recipient.
type Wallet struct {
	Address keyward.Address `json:"address"`
	Coins   coin.Coins      `json:"coins"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Marshal() ([]byte, error) {
	return codec.Marshal(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, w)
}

func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Address", w.Address.Validate())
	errs = errors.AppendField(errs, "Coins", w.Coins.Validate())
	return errs
}

var vaultSeq = orm.NewSequence("vault", "id")

// NewVaultBucket returns the bucket holding vaults, indexed by owner.
func NewVaultBucket() orm.ModelBucket {
	return orm.NewModelBucket("vault", &Vault{},
		orm.WithIDSequence(vaultSeq),
		orm.WithIndex("owner", ownerIndex, false),
	)
}

func ownerIndex(obj orm.Object) ([]byte, error) {
	v, ok := obj.Value().(*Vault)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", obj.Value())
	}
	return v.Owner, nil
}

// NewWalletBucket returns the bucket of recipient wallets, keyed by address.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket("wallet", &Wallet{})
}

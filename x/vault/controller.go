package vault

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/gconf"
	"github.com/keyward/keyward/orm"
	"github.com/keyward/keyward/x"
)

// Transfer moves a single asset amount to a recipient.
type Transfer struct {
	Asset     coin.Coin       `json:"asset"`
	Recipient keyward.Address `json:"recipient"`
}

func (t Transfer) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Asset", t.Asset.Validate())
	if !t.Asset.IsPositive() {
		errs = errors.Append(errs, errors.Field("Asset", errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Recipient", t.Recipient.Validate())
	return errs
}

// Totals sums the requested amount per asset.
func Totals(transfers []Transfer) (coin.Coins, error) {
	var total coin.Coins
	for i, t := range transfers {
		var err error
		total, err = total.Add(t.Asset)
		if err != nil {
			return nil, errors.Wrapf(err, "transfer %d", i)
		}
	}
	return total, nil
}

// Controller is the asset interface of vaults used by other extensions.
type Controller interface {
	// Get returns the vault or ErrNotFound.
	Get(db keyward.ReadOnlyKVStore, vaultID []byte) (*Vault, error)
	// Owner returns the address of the vault owner.
	Owner(db keyward.ReadOnlyKVStore, vaultID []byte) (keyward.Address, error)
	// Authorize returns the vault if its owner signed the transaction
	// and ErrNotOwner otherwise.
	Authorize(ctx keyward.Context, db keyward.ReadOnlyKVStore, auth x.Authenticator, vaultID []byte) (*Vault, error)
	// BalanceOf returns the amount of the asset held by the vault.
	BalanceOf(db keyward.ReadOnlyKVStore, vaultID []byte, ticker string) (coin.Coin, error)
	// Deposit increases the vault balance. It is never restricted.
	Deposit(db keyward.KVStore, vaultID []byte, amount coin.Coin) error
	// Covers returns ErrInsufficientBalance unless the vault holds enough
	// of every asset to execute all transfers.
	Covers(db keyward.ReadOnlyKVStore, vaultID []byte, transfers []Transfer) error
	// Transfer moves a single amount to the recipient wallet.
	Transfer(db keyward.KVStore, vaultID []byte, recipient keyward.Address, amount coin.Coin) error
	// TransferBatch moves all funds or none of them.
	TransferBatch(db keyward.KVStore, vaultID []byte, transfers []Transfer) error
	// Config returns the vault settings with unset values taken from
	// the global policy.
	Config(db keyward.ReadOnlyKVStore, vaultID []byte) (VaultConfig, error)
}

// BaseController is the bucket backed Controller.
type BaseController struct {
	vaults  orm.ModelBucket
	wallets orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		vaults:  NewVaultBucket(),
		wallets: NewWalletBucket(),
	}
}

func (c BaseController) Get(db keyward.ReadOnlyKVStore, vaultID []byte) (*Vault, error) {
	var v Vault
	if err := c.vaults.One(db, vaultID, &v); err != nil {
		return nil, errors.Wrapf(err, "vault %X", vaultID)
	}
	return &v, nil
}

// Create stores a new vault under the next sequence ID and returns that ID.
func (c BaseController) Create(db keyward.KVStore, v *Vault) ([]byte, error) {
	id, err := vaultSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire key")
	}
	v.ID = id
	if _, err := c.vaults.Put(db, id, v); err != nil {
		return nil, errors.Wrap(err, "cannot store vault")
	}
	return id, nil
}

func (c BaseController) Owner(db keyward.ReadOnlyKVStore, vaultID []byte) (keyward.Address, error) {
	v, err := c.Get(db, vaultID)
	if err != nil {
		return nil, err
	}
	return v.Owner, nil
}

func (c BaseController) Authorize(ctx keyward.Context, db keyward.ReadOnlyKVStore, auth x.Authenticator, vaultID []byte) (*Vault, error) {
	v, err := c.Get(db, vaultID)
	if err != nil {
		return nil, err
	}
	if !auth.HasAddress(ctx, v.Owner) {
		return nil, errors.Wrapf(ErrNotOwner, "vault %X", vaultID)
	}
	return v, nil
}

func (c BaseController) BalanceOf(db keyward.ReadOnlyKVStore, vaultID []byte, ticker string) (coin.Coin, error) {
	v, err := c.Get(db, vaultID)
	if err != nil {
		return coin.Coin{}, err
	}
	return v.Balances.Balance(ticker), nil
}

func (c BaseController) Deposit(db keyward.KVStore, vaultID []byte, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "deposit must be positive")
	}
	v, err := c.Get(db, vaultID)
	if err != nil {
		return err
	}
	if v.Balances, err = v.Balances.Add(amount); err != nil {
		return errors.Wrap(err, "balance")
	}
	if _, err := c.vaults.Put(db, vaultID, v); err != nil {
		return errors.Wrap(err, "cannot store vault")
	}
	return nil
}

func (c BaseController) Covers(db keyward.ReadOnlyKVStore, vaultID []byte, transfers []Transfer) error {
	v, err := c.Get(db, vaultID)
	if err != nil {
		return err
	}
	_, err = debit(v.Balances, transfers)
	return err
}

// debit returns the balances left after all transfers.
func debit(balances coin.Coins, transfers []Transfer) (coin.Coins, error) {
	total, err := Totals(transfers)
	if err != nil {
		return nil, err
	}
	left := balances
	for _, want := range total {
		if !left.Contains(*want) {
			have := left.Balance(want.Ticker)
			return nil, errors.Wrapf(ErrInsufficientBalance, "requested %s, holding %s", want, have)
		}
		if left, err = left.Subtract(*want); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (c BaseController) Transfer(db keyward.KVStore, vaultID []byte, recipient keyward.Address, amount coin.Coin) error {
	return c.TransferBatch(db, vaultID, []Transfer{{Asset: amount, Recipient: recipient}})
}

func (c BaseController) TransferBatch(db keyward.KVStore, vaultID []byte, transfers []Transfer) error {
	if len(transfers) == 0 {
		return errors.Wrap(errors.ErrEmpty, "transfers")
	}
	for i, t := range transfers {
		if err := t.Validate(); err != nil {
			return errors.Wrapf(err, "transfer %d", i)
		}
	}
	v, err := c.Get(db, vaultID)
	if err != nil {
		return err
	}
	// Balance check for the whole batch happens before any write.
	left, err := debit(v.Balances, transfers)
	if err != nil {
		return err
	}
	v.Balances = left
	if _, err := c.vaults.Put(db, vaultID, v); err != nil {
		return errors.Wrap(err, "cannot store vault")
	}
	for i, t := range transfers {
		if err := c.credit(db, t.Recipient, t.Asset); err != nil {
			return errors.Wrapf(err, "transfer %d", i)
		}
	}
	return nil
}

func (c BaseController) credit(db keyward.KVStore, recipient keyward.Address, amount coin.Coin) error {
	var w Wallet
	switch err := c.wallets.One(db, recipient, &w); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		w = Wallet{Address: recipient}
	default:
		return err
	}
	var err error
	if w.Coins, err = w.Coins.Add(amount); err != nil {
		return errors.Wrap(err, "wallet balance")
	}
	_, err = c.wallets.Put(db, recipient, &w)
	return err
}

// WalletOf returns the funds credited to the address. An address that never
// received anything has an empty wallet.
func (c BaseController) WalletOf(db keyward.ReadOnlyKVStore, addr keyward.Address) (coin.Coins, error) {
	var w Wallet
	switch err := c.wallets.One(db, addr, &w); {
	case err == nil:
		return w.Coins, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

func (c BaseController) Config(db keyward.ReadOnlyKVStore, vaultID []byte) (VaultConfig, error) {
	v, err := c.Get(db, vaultID)
	if err != nil {
		return VaultConfig{}, err
	}
	policy, err := gconf.LoadPolicy(db)
	if err != nil {
		return VaultConfig{}, errors.Wrap(err, "policy")
	}
	return Resolve(v.Config, policy), nil
}

// Resolve fills unset values of the vault configuration from the policy.
func Resolve(c VaultConfig, p gconf.Policy) VaultConfig {
	if c.ActivationDelay == 0 {
		c.ActivationDelay = p.DefaultActivationDelay
	}
	if c.VotingWindow == 0 {
		c.VotingWindow = p.DefaultVotingWindow
	}
	if c.BatchVotingWindow == 0 {
		c.BatchVotingWindow = p.BatchVotingWindow
	}
	if c.RemoteWeight.IsZero() {
		c.RemoteWeight = p.DefaultRemoteWeight
	}
	return c
}

package vault

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/coin"
	"github.com/keyward/keyward/errors"
)

const optKey = "vaults"

// GenesisVault is used to parse the json from genesis file.
type GenesisVault struct {
	Name      string           `json:"name"`
	Owner     keyward.Address  `json:"owner"`
	Balances  coin.Coins       `json:"balances"`
	Config    VaultConfig      `json:"config"`
	CreatedAt keyward.UnixTime `json:"created_at"`
}

// Initializer fulfils the Initializer interface to load vaults from the
// genesis file.
type Initializer struct{}

var _ keyward.Initializer = Initializer{}

// FromGenesis creates the listed vaults in order, so their IDs follow the
// genesis order starting with 1.
func (Initializer) FromGenesis(opts keyward.Options, db keyward.KVStore) error {
	var vaults []GenesisVault
	if err := opts.ReadOptions(optKey, &vaults); err != nil {
		return err
	}
	ctrl := NewController()
	for i, g := range vaults {
		v := &Vault{
			Name:      g.Name,
			Owner:     g.Owner,
			Balances:  g.Balances,
			Config:    g.Config,
			CreatedAt: g.CreatedAt,
		}
		if _, err := ctrl.Create(db, v); err != nil {
			return errors.Wrapf(err, "vault %d", i)
		}
	}
	return nil
}

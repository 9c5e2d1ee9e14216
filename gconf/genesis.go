package gconf

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// PolicyInitializer loads the policy from the genesis "conf" section.
// Values missing in the genesis fall back to the defaults.
type PolicyInitializer struct{}

var _ keyward.Initializer = PolicyInitializer{}

func (PolicyInitializer) FromGenesis(opts keyward.Options, db keyward.KVStore) error {
	p := DefaultPolicy()
	err := InitConfig(db, opts, PolicyPkg, &p)
	if errors.ErrNotFound.Is(err) {
		return nil
	}
	return err
}

package crossdomain

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

const optKey = "domains"

// Initializer loads the remote domains trusted from the start. Snapshots
// are always submitted by a relay.
type Initializer struct{}

var _ keyward.Initializer = Initializer{}

func (Initializer) FromGenesis(opts keyward.Options, db keyward.KVStore) error {
	var domains []Domain
	if err := opts.ReadOptions(optKey, &domains); err != nil {
		return err
	}
	ctrl := NewController()
	for i := range domains {
		if err := ctrl.RegisterDomain(db, &domains[i]); err != nil {
			return errors.Wrapf(err, "domain %d", i)
		}
	}
	return nil
}

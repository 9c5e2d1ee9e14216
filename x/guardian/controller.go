package guardian

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/orm"
)

// Controller is the read only view of the registry used by other
// extensions.
type Controller interface {
	// Get returns the guardian record with given ID.
	Get(db keyward.ReadOnlyKVStore, id []byte) (*Guardian, error)
	// Live returns the pending or active record of the address in the
	// vault, or nil if there is none.
	Live(db keyward.ReadOnlyKVStore, vaultID []byte, addr keyward.Address) (*Guardian, error)
	// IsActive returns true if the address is an active guardian of the
	// vault.
	IsActive(db keyward.ReadOnlyKVStore, vaultID []byte, addr keyward.Address) (bool, error)
	// ActiveGuardians returns all active guardians of the vault.
	ActiveGuardians(db keyward.ReadOnlyKVStore, vaultID []byte) ([]*Guardian, error)
	// Threshold returns the vault quorum or zero if none was set.
	Threshold(db keyward.ReadOnlyKVStore, vaultID []byte) (uint32, error)
}

// BaseController is the bucket backed Controller.
type BaseController struct {
	guardians orm.ModelBucket
	quorums   orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default buckets.
func NewController() BaseController {
	return BaseController{
		guardians: NewGuardianBucket(),
		quorums:   NewQuorumBucket(),
	}
}

func (c BaseController) Get(db keyward.ReadOnlyKVStore, id []byte) (*Guardian, error) {
	var g Guardian
	if err := c.guardians.One(db, id, &g); err != nil {
		return nil, errors.Wrapf(err, "guardian %X", id)
	}
	return &g, nil
}

func (c BaseController) Live(db keyward.ReadOnlyKVStore, vaultID []byte, addr keyward.Address) (*Guardian, error) {
	var found []*Guardian
	if _, err := c.guardians.ByIndex(db, "live", liveKey(vaultID, addr), &found); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrHuman, "%d live records of %s", len(found), addr)
	}
}

func (c BaseController) IsActive(db keyward.ReadOnlyKVStore, vaultID []byte, addr keyward.Address) (bool, error) {
	g, err := c.Live(db, vaultID, addr)
	if err != nil {
		return false, err
	}
	return g != nil && g.Status == StatusActive, nil
}

func (c BaseController) ActiveGuardians(db keyward.ReadOnlyKVStore, vaultID []byte) ([]*Guardian, error) {
	var all []*Guardian
	if _, err := c.guardians.ByIndex(db, "vault", vaultID, &all); err != nil {
		return nil, err
	}
	active := all[:0]
	for _, g := range all {
		if g.Status == StatusActive {
			active = append(active, g)
		}
	}
	return active, nil
}

func (c BaseController) Threshold(db keyward.ReadOnlyKVStore, vaultID []byte) (uint32, error) {
	var q Quorum
	switch err := c.quorums.One(db, vaultID, &q); {
	case err == nil:
		return q.Threshold, nil
	case errors.ErrNotFound.Is(err):
		return 0, nil
	default:
		return 0, err
	}
}

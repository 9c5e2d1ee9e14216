package app

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

// CommitStore handles loading from a CommitKVStore, maintaining different
// CacheWraps for Deliver and Check, and returning useful state info.
type CommitStore struct {
	committed keyward.CommitKVStore
	deliver   keyward.KVCacheWrap
	check     keyward.KVCacheWrap
}

// NewCommitStore loads the CommitKVStore from disk or panics. It sets up the
// deliver and check caches.
func NewCommitStore(store keyward.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
		check:     store.CacheWrap(),
	}
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (keyward.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit will flush deliver to the underlying store and commit it
// to disk. It then regenerates new deliver/check caches
func (cs *CommitStore) Commit() (keyward.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return keyward.CommitID{}, err
	}
	cs.check.Discard()

	res, err := cs.committed.Commit()
	if err != nil {
		return res, err
	}

	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
	return res, nil
}

// CheckStore returns a store implementation that must be used during the
// checking phase.
func (cs *CommitStore) CheckStore() keyward.CacheableKVStore {
	return cs.check
}

// DeliverStore returns a store implementation that must be used during the
// delivery phase.
func (cs *CommitStore) DeliverStore() keyward.CacheableKVStore {
	return cs.deliver
}

// _kw: is a prefix for internal data
const chainIDKey = "_kw:chainID"

// mustLoadChainID returns the chain id stored if any
// panics on db error
func mustLoadChainID(kv keyward.ReadOnlyKVStore) string {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		panic(err)
	}
	return string(v)
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv keyward.KVStore, chainID string) error {
	if !keyward.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chain id")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	if err := kv.Set(k, []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chain id")
	}
	return nil
}

package iavl

import (
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// cacheSize is the number of tree nodes kept in memory.
const cacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing
func NewCommitStore(path string, name string) CommitStore {
	// Create the underlying leveldb datastore which will
	// persist the Merkle tree inner & leaf nodes.
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, path)
	return CommitStore{tree: iavl.NewMutableTree(db, cacheSize)}
}

// NewMemCommitStore creates a new store that keeps all data in memory.
func NewMemCommitStore() CommitStore {
	return CommitStore{tree: iavl.NewMutableTree(dbm.NewMemDB(), cacheSize)}
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// Adapter returns a wrapped version of the tree.
//
// Data written there will be written to the working tree and persisted on
// the next Commit.
func (s CommitStore) Adapter() store.CacheableKVStore {
	return store.BTreeCacheable{KVStore: adapter{tree: s.tree}}
}

// CacheWrap wraps the Adapter with a cache, so it may be written
// or discarded as needed.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// adapter converts the working iavl.Tree to match these interfaces
type adapter struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = adapter{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (a adapter) Get(key []byte) ([]byte, error) {
	_, val := a.tree.Get(key)
	return val, nil
}

// Has checks if a key exists. Panics on nil key.
func (a adapter) Has(key []byte) (bool, error) {
	return a.tree.Has(key), nil
}

// Set adds a new value
func (a adapter) Set(key, value []byte) error {
	a.tree.Set(key, value)
	return nil
}

// Delete removes from the tree
func (a adapter) Delete(key []byte) error {
	a.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that can write multiple ops atomically
func (a adapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
// Start must be less than end, or the Iterator is invalid.
func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
// Start must be greater than end, or the Iterator is invalid.
func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.collect(start, end, false), nil
}

func (a adapter) collect(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	a.tree.IterateRange(start, end, ascending, func(key []byte, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(res)
}

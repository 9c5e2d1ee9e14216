package store

import "github.com/keyward/keyward"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = keyward.ReadOnlyKVStore
type SetDeleter = keyward.SetDeleter
type KVStore = keyward.KVStore
type Batch = keyward.Batch
type Iterator = keyward.Iterator
type CacheableKVStore = keyward.CacheableKVStore
type KVCacheWrap = keyward.KVCacheWrap
type CommitKVStore = keyward.CommitKVStore
type CommitID = keyward.CommitID
type Model = keyward.Model

package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/keyward/keyward/errors"
)

// DefaultFreeListSize is the number of released btree nodes kept for reuse.
const DefaultFreeListSize = btree.DefaultFreeListSize

// BTreeCacheable gives a KVStore a btree backed CacheWrap.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns an in memory store without persistence.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// BTreeCacheWrap keeps pending writes in a btree on top of a read only
// parent. Writes reach the parent only through the batch, on Write.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap caches kv. A nil free list allocates a new one. Pass the
// list of a parent cache to share released nodes.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap stacks another cache on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write flushes pending writes to the parent and empties the cache.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all pending writes. The nodes return to the free list.
func (b BTreeCacheWrap) Discard() {
	for b.bt.DeleteMin() != nil {
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.bt.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

// lookup returns the cached entry of key. ok is false when the key was not
// touched by this cache.
func (b BTreeCacheWrap) lookup(key []byte) (e entry, ok bool, err error) {
	item := b.bt.Get(entry{key: key})
	if item == nil {
		return entry{}, false, nil
	}
	e, ok = item.(entry)
	if !ok {
		return entry{}, false, errors.Wrapf(errors.ErrDatabase, "unknown item in btree: %#v", item)
	}
	return e, true, nil
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	e, ok, err := b.lookup(key)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return b.back.Get(key)
	case e.deleted:
		return nil, nil
	default:
		return e.value, nil
	}
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	e, ok, err := b.lookup(key)
	switch {
	case err != nil:
		return false, err
	case !ok:
		return b.back.Has(key)
	default:
		return !e.deleted, nil
	}
}

// Iterator returns the [start, end) range in ascending order, merging the
// cache with the parent.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	parent, err := readParent(b.back.Iterator(start, end))
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(combine(ascendBtree(b.bt, start, end), parent, false)), nil
}

// ReverseIterator returns the [start, end) range in descending order,
// merging the cache with the parent.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := readParent(b.back.ReverseIterator(start, end))
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(combine(descendBtree(b.bt, start, end), parent, true)), nil
}

func readParent(it Iterator, err error) ([]Model, error) {
	if err != nil {
		return nil, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, errors.Wrap(err, "parent iterator")
	}
	return models, nil
}

// entry is a cached write. A deleted entry hides the parent value.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, itemKey(than)) < 0
}

// pivot sorts before any entry with an equal key. Descending ranges use it
// to turn the inclusive bounds of btree into exclusive ones.
type pivot []byte

func (p pivot) Less(than btree.Item) bool {
	return bytes.Compare(p, itemKey(than)) <= 0
}

func itemKey(item btree.Item) []byte {
	switch v := item.(type) {
	case entry:
		return v.key
	case pivot:
		return v
	}
	panic("unknown btree item")
}

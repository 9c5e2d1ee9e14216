package orm

import (
	"bytes"
	"sort"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

const compactIdxPrefix = "_i."

// refList holds the primary keys referenced by a single non unique index
// value. Keys are kept sorted.
type refList struct {
	Refs [][]byte
}

func (r *refList) add(ref []byte) error {
	i := sort.Search(len(r.Refs), func(i int) bool { return bytes.Compare(r.Refs[i], ref) >= 0 })
	if i < len(r.Refs) && bytes.Equal(r.Refs[i], ref) {
		return errors.Wrap(errors.ErrDuplicate, "reference already indexed")
	}
	r.Refs = append(r.Refs, nil)
	copy(r.Refs[i+1:], r.Refs[i:])
	r.Refs[i] = ref
	return nil
}

func (r *refList) remove(ref []byte) error {
	i := sort.Search(len(r.Refs), func(i int) bool { return bytes.Compare(r.Refs[i], ref) >= 0 })
	if i == len(r.Refs) || !bytes.Equal(r.Refs[i], ref) {
		return errors.Wrap(errors.ErrNotFound, "reference not indexed")
	}
	r.Refs = append(r.Refs[:i], r.Refs[i+1:]...)
	return nil
}

// compactIndex represents a secondary index on some data.
// It is indexed by an arbitrary key returned by Indexer.
// The value is one primary key (unique),
// Or an array of primary keys (!unique).
//
// All references for a single index value are stored under a single database
// key, so it fits best small collections.
type compactIndex struct {
	name   string
	id     []byte
	unique bool
	index  MultiKeyIndexer
	refKey func([]byte) []byte
}

var _ Indexed = compactIndex{}

// NewMultiKeyIndex constructs an index with multi key indexer.
// Indexer calculates the index for an object
// unique enforces a unique constraint on the index
// refKey calculates the absolute dbkey for a ref
func NewMultiKeyIndex(name string, indexer MultiKeyIndexer, unique bool, refKey func([]byte) []byte) Indexed {
	return compactIndex{
		name:   name,
		id:     append([]byte(compactIdxPrefix), []byte(name+":")...),
		index:  indexer,
		unique: unique,
		refKey: refKey,
	}
}

// indexKey is the full key we store in the db, including prefix
func (i compactIndex) indexKey(key []byte) []byte {
	l := len(i.id)
	out := make([]byte, l+len(key))
	copy(out, i.id)
	copy(out[l:], key)
	return out
}

// Update handles updating the reference to the object in
// the secondary index.
//
// prev == nil means insert
// save == nil means delete
// both == nil is error
// if both != nil and prev.Key() != save.Key() this is an error
//
// Otherwise, it will check indexer(prev) and indexer(save)
// and make sure the key is now stored in the right location
func (i compactIndex) Update(db keyward.KVStore, prev Object, save Object) error {
	switch {
	case prev == nil && save == nil:
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	case prev == nil:
		keys, err := i.index(save)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.insert(db, key, save.Key()); err != nil {
				return err
			}
		}
		return nil
	case save == nil:
		keys, err := i.index(prev)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := i.remove(db, key, prev.Key()); err != nil {
				return err
			}
		}
		return nil
	default:
		return i.move(db, prev, save)
	}
}

// GetAt returns a list of all pk at that index (may be nil), or an error
func (i compactIndex) GetAt(db keyward.ReadOnlyKVStore, index []byte) ([][]byte, error) {
	val, err := db.Get(i.indexKey(index))
	if err != nil {
		return nil, err
	}
	return i.decode(val)
}

// GetPrefix returns all references that have an index that begins with a
// given prefix.
func (i compactIndex) GetPrefix(db keyward.ReadOnlyKVStore, prefix []byte) ([][]byte, error) {
	models, err := queryPrefix(db, i.indexKey(prefix))
	if err != nil {
		return nil, err
	}
	var refs [][]byte
	for _, m := range models {
		r, err := i.decode(m.Value)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}
	return refs, nil
}

func (i compactIndex) decode(val []byte) ([][]byte, error) {
	if val == nil {
		return nil, nil
	}
	if i.unique {
		return [][]byte{val}, nil
	}
	var data refList
	if err := codec.Unmarshal(val, &data); err != nil {
		return nil, err
	}
	return data.Refs, nil
}

// Query handles queries from the QueryRouter
func (i compactIndex) Query(db keyward.ReadOnlyKVStore, mod string, data []byte) ([]keyward.Model, error) {
	var (
		refs [][]byte
		err  error
	)
	switch mod {
	case keyward.KeyQueryMod:
		refs, err = i.GetAt(db, data)
	case keyward.PrefixQueryMod:
		refs, err = i.GetPrefix(db, data)
	default:
		return nil, errors.Wrap(errors.ErrInput, "unknown mod: "+mod)
	}
	if err != nil {
		return nil, err
	}
	return i.loadRefs(db, refs)
}

func (i compactIndex) loadRefs(db keyward.ReadOnlyKVStore, refs [][]byte) ([]keyward.Model, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	res := make([]keyward.Model, len(refs))
	for j, ref := range refs {
		key := i.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		res[j] = keyward.Model{Key: key, Value: value}
	}
	return res, nil
}

func (i compactIndex) move(db keyward.KVStore, prev Object, save Object) error {
	// if the primary key is not equal, we have a problem
	if !bytes.Equal(prev.Key(), save.Key()) {
		return errors.Wrap(errors.ErrImmutable, "cannot modify the primary key of an object")
	}

	oldKeys, err := i.index(prev)
	if err != nil {
		return err
	}
	newKeys, err := i.index(save)
	if err != nil {
		return err
	}
	keysToAdd := subtract(newKeys, oldKeys)
	keysToRemove := subtract(oldKeys, newKeys)

	// check unique constraints first
	if i.unique {
		for _, newKey := range keysToAdd {
			has, err := db.Has(i.indexKey(newKey))
			if err != nil {
				return err
			}
			if has {
				return errors.Wrap(errors.ErrDuplicate, i.name)
			}
		}
	}

	for _, oldKey := range keysToRemove {
		if err := i.remove(db, oldKey, prev.Key()); err != nil {
			return err
		}
	}
	for _, newKey := range keysToAdd {
		if err := i.insert(db, newKey, prev.Key()); err != nil {
			return err
		}
	}
	return nil
}

// subtract returns all elements of minuend that are not in subtrahend.
func subtract(minuend [][]byte, subtrahend [][]byte) [][]byte {
	var r [][]byte
outer:
	for _, m := range minuend {
		for _, s := range subtrahend {
			if bytes.Equal(m, s) {
				continue outer
			}
		}
		r = append(r, m)
	}
	return r
}

func (i compactIndex) remove(db keyward.KVStore, index []byte, pk []byte) error {
	// don't deal with empty keys
	if len(index) == 0 {
		return nil
	}

	key := i.indexKey(index)
	cur, err := db.Get(key)
	if err != nil {
		return err
	}
	if cur == nil {
		return errors.Wrap(errors.ErrNotFound, "cannot remove index from nothing")
	}
	if i.unique {
		// if something else was here, don't delete
		if !bytes.Equal(cur, pk) {
			return errors.Wrap(errors.ErrNotFound, "cannot remove index from invalid object")
		}
		return db.Delete(key)
	}

	var data refList
	if err := codec.Unmarshal(cur, &data); err != nil {
		return err
	}
	if err := data.remove(pk); err != nil {
		return err
	}
	if len(data.Refs) == 0 {
		return db.Delete(key)
	}
	raw, err := codec.Marshal(&data)
	if err != nil {
		return err
	}
	return db.Set(key, raw)
}

func (i compactIndex) insert(db keyward.KVStore, index []byte, pk []byte) error {
	// don't deal with empty keys
	if len(index) == 0 {
		return nil
	}

	key := i.indexKey(index)
	cur, err := db.Get(key)
	if err != nil {
		return err
	}

	if i.unique {
		if cur != nil {
			return errors.Wrap(errors.ErrDuplicate, i.name)
		}
		return db.Set(key, pk)
	}

	var data refList
	if cur != nil {
		if err := codec.Unmarshal(cur, &data); err != nil {
			return err
		}
	}
	if err := data.add(pk); err != nil {
		return err
	}
	raw, err := codec.Marshal(&data)
	if err != nil {
		return err
	}
	return db.Set(key, raw)
}

package orm

import (
	"testing"

	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

func TestUniqueIndex(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, &Counter{})).
		WithIndex("value", counterByValue, true)

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), &Counter{Count: 5})))

	// Second object with the same index value violates the constraint.
	err := b.Save(db, NewSimpleObj([]byte("b"), &Counter{Count: 5}))
	assert.IsErr(t, errors.ErrDuplicate, err)

	// Updating the owner of the index value is fine.
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), &Counter{Count: 6})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("b"), &Counter{Count: 5})))

	objs, err := b.GetIndexed(db, "value", []byte("6"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(objs))
	assert.Equal(t, []byte("a"), objs[0].Key())

	// Zero value is not indexed at all.
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("c"), &Counter{})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("d"), &Counter{})))

	assert.Nil(t, b.Delete(db, []byte("a")))
	objs, err = b.GetIndexed(db, "value", []byte("6"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(objs))

	_, err = b.GetIndexed(db, "unknown", []byte("6"))
	assert.IsErr(t, ErrInvalidIndex, err)
}

func TestMultiKeyIndex(t *testing.T) {
	db := store.MemStore()
	b := NewBucket("cnts", NewSimpleObj(nil, &Counter{})).
		WithMultiKeyIndex("tags", counterByTags, false)

	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("b"), &Counter{Count: 1, Tags: []string{"red", "blue"}})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("a"), &Counter{Count: 2, Tags: []string{"red"}})))
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("c"), &Counter{Count: 3, Tags: []string{"green"}})))

	keysOf := func(objs []Object) []string {
		var keys []string
		for _, o := range objs {
			keys = append(keys, string(o.Key()))
		}
		return keys
	}

	red, err := b.GetIndexed(db, "tags", []byte("red"))
	assert.Nil(t, err)
	// References are ordered by the primary key.
	assert.Equal(t, []string{"a", "b"}, keysOf(red))

	// Moving an object between index values.
	assert.Nil(t, b.Save(db, NewSimpleObj([]byte("b"), &Counter{Count: 1, Tags: []string{"green"}})))

	red, err = b.GetIndexed(db, "tags", []byte("red"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"a"}, keysOf(red))

	green, err := b.GetIndexed(db, "tags", []byte("green"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"b", "c"}, keysOf(green))

	blue, err := b.GetIndexed(db, "tags", []byte("blue"))
	assert.Nil(t, err)
	assert.Equal(t, 0, len(blue))

	prefixed, err := b.GetIndexedPrefix(db, "tags", []byte("gr"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"b", "c"}, keysOf(prefixed))
}

func TestIndexUpdateRules(t *testing.T) {
	db := store.MemStore()
	idx := NewMultiKeyIndex("cnts_value", func(obj Object) ([][]byte, error) {
		k, err := counterByValue(obj)
		return [][]byte{k}, err
	}, true, func(k []byte) []byte { return k })

	err := idx.Update(db, nil, nil)
	assert.IsErr(t, errors.ErrHuman, err)

	a := NewSimpleObj([]byte("a"), &Counter{Count: 1})
	b := NewSimpleObj([]byte("b"), &Counter{Count: 2})
	err = idx.Update(db, a, b)
	assert.IsErr(t, errors.ErrImmutable, err)

	err = idx.Update(db, a, nil)
	assert.IsErr(t, errors.ErrNotFound, err)
}

package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertGetHas(t testing.TB, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}

// TestBTreeCacheGetSet does basic sanity checks on our cache
//
// Other tests should handle deletes, setting same value,
// iterating over ranges, and general fuzzing
func TestBTreeCacheGetSet(t *testing.T) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}

	// base is the root of our data, we can layer on top and
	// all queries should work
	base := devnull.CacheWrap()

	k, v := []byte("french"), []byte("fry")
	assertGetHas(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	assertGetHas(t, base, k, v)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assertGetHas(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	assertGetHas(t, cache, k2, v2)
	assertGetHas(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assertGetHas(t, base, k, v)
	assertGetHas(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()
	assertGetHas(t, base, k3, nil)

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	assertGetHas(t, base, k, nil)
	assertGetHas(t, base, k2, v2)
}

func TestBTreeCacheConflicts(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}

	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we expect
		childQueries  []Model
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])},
			childOps:      []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])},
			parentQueries: []Model{{Key: ks[1], Value: vs[1]}, {Key: ks[2], Value: vs[2]}, {Key: ks[3]}},
			childQueries:  []Model{{Key: ks[1], Value: vs[11]}, {Key: ks[2]}, {Key: ks[3], Value: vs[7]}},
		},
		"delete then set again": {
			parentOps:     []Op{SetOp(ks[4], vs[4])},
			childOps:      []Op{DelOp(ks[4]), SetOp(ks[4], vs[14])},
			parentQueries: []Model{{Key: ks[4], Value: vs[4]}},
			childQueries:  []Model{{Key: ks[4], Value: vs[14]}},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent := devnull.CacheWrap()
			for _, op := range tc.parentOps {
				require.NoError(t, op.Apply(parent))
			}
			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				require.NoError(t, op.Apply(child))
			}

			for _, q := range tc.parentQueries {
				assertGetHas(t, parent, q.Key, q.Value)
			}
			for _, q := range tc.childQueries {
				assertGetHas(t, child, q.Key, q.Value)
			}

			require.NoError(t, child.Write())
			for _, q := range tc.childQueries {
				assertGetHas(t, parent, q.Key, q.Value)
			}
		})
	}
}

// TestBTreeCacheBasicIterator makes sure the basic iterator
// works. Includes random deletes and values spread over two layers.
func TestBTreeCacheBasicIterator(t *testing.T) {
	const Size = 50
	const DeleteCount = 20
	const TotalSize = Size + DeleteCount

	models := make([]Model, TotalSize)
	for i := 0; i < TotalSize; i++ {
		models[i].Key = randBytes(8)
		models[i].Value = randBytes(40)
	}

	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()
	// half of the data lives in the parent, half in the child
	for i := 0; i < TotalSize/2; i++ {
		require.NoError(t, base.Set(models[i].Key, models[i].Value))
	}
	child := base.CacheWrap()
	for i := TotalSize / 2; i < TotalSize; i++ {
		require.NoError(t, child.Set(models[i].Key, models[i].Value))
	}
	// delete the first chunk
	for i := 0; i < DeleteCount; i++ {
		require.NoError(t, child.Delete(models[i].Key))
	}
	models = models[DeleteCount:]

	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})

	verifyIterator(t, models)(child.Iterator(nil, nil))
	verifyIterator(t, models[10:])(child.Iterator(models[10].Key, nil))
	verifyIterator(t, models[:Size-8])(child.Iterator(nil, models[Size-8].Key))
	verifyIterator(t, models[17:28])(child.Iterator(models[17].Key, models[28].Key))

	verifyIterator(t, reverse(models))(child.ReverseIterator(nil, nil))
	verifyIterator(t, reverse(models[34:]))(child.ReverseIterator(models[34].Key, nil))
	verifyIterator(t, reverse(models[:19]))(child.ReverseIterator(nil, models[19].Key))
	verifyIterator(t, reverse(models[6:26]))(child.ReverseIterator(models[6].Key, models[26].Key))
}

// verifyIterator returns a function that consumes an iterator and ensures
// it yields exactly the given models.
func verifyIterator(t *testing.T, models []Model) func(Iterator, error) {
	return func(iter Iterator, err error) {
		t.Helper()
		require.NoError(t, err)
		got, err := ReadAll(iter)
		require.NoError(t, err)
		require.Equal(t, len(models), len(got))
		for i := range models {
			assert.Equal(t, models[i].Key, got[i].Key, "%d", i)
			assert.Equal(t, models[i].Value, got[i].Value, "%d", i)
		}
	}
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// randKeys returns a slice of count keys, all of length
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	_, _ = rand.Read(res)
	return res
}

package orm

import (
	"testing"

	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest/assert"
	"github.com/keyward/keyward/store"
)

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	if _, err := b.Put(db, []byte("c1"), &Counter{Count: 1}); err != nil {
		t.Fatalf("cannot save counter instance: %s", err)
	}

	var c1 Counter
	if err := b.One(db, []byte("c1"), &c1); err != nil {
		t.Fatalf("cannot get c1 counter: %s", err)
	}
	if c1.Count != 1 {
		t.Fatalf("unexpected counter state: %d", c1.Count)
	}
	assert.Nil(t, b.Has(db, []byte("c1")))

	if err := b.Delete(db, []byte("c1")); err != nil {
		t.Fatalf("cannot delete c1 counter: %s", err)
	}
	if err := b.Delete(db, []byte("unknown")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error when deleting unexisting instance: %s", err)
	}
	if err := b.One(db, []byte("c1"), &c1); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error for an unknown model get: %s", err)
	}
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, []byte("c1")))
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, nil))
}

func TestModelBucketPutSequence(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	k1, err := b.Put(db, nil, &Counter{Count: 1})
	assert.Nil(t, err)
	k2, err := b.Put(db, nil, &Counter{Count: 2})
	assert.Nil(t, err)
	assert.Equal(t, EncodeSequence(1), k1)
	assert.Equal(t, EncodeSequence(2), k2)

	// Explicit key is used as is.
	k3, err := b.Put(db, []byte("x"), &Counter{Count: 3})
	assert.Nil(t, err)
	assert.Equal(t, []byte("x"), k3)

	_, err = b.Put(db, nil, &Counter{Count: -1})
	assert.IsErr(t, errors.ErrState, err)
}

type otherModel struct {
	Counter
}

func TestModelBucketWrongType(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	_, err := b.Put(db, []byte("a"), &otherModel{})
	assert.IsErr(t, errors.ErrType, err)
}

func TestModelBucketByIndex(t *testing.T) {
	cases := map[string]struct {
		IndexName string
		QueryKey  string
		WantErr   *errors.Error
		WantRes   []Counter
		WantKeys  [][]byte
	}{
		"find none": {
			IndexName: "value",
			QueryKey:  "124089710947120",
		},
		"find one": {
			IndexName: "value",
			QueryKey:  "1111",
			WantRes:   []Counter{{Count: 1111}},
			WantKeys:  [][]byte{EncodeSequence(1)},
		},
		"find two": {
			IndexName: "value",
			QueryKey:  "4444",
			WantRes:   []Counter{{Count: 4444}, {Count: 4444}},
			WantKeys:  [][]byte{EncodeSequence(2), EncodeSequence(3)},
		},
		"non existing index name": {
			IndexName: "xyz",
			WantErr:   ErrInvalidIndex,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			b := NewModelBucket("cnts", &Counter{}, WithIndex("value", counterByValue, false))

			for _, c := range []int64{1111, 4444, 4444} {
				_, err := b.Put(db, nil, &Counter{Count: c})
				assert.Nil(t, err)
			}

			var dest []Counter
			keys, err := b.ByIndex(db, tc.IndexName, []byte(tc.QueryKey), &dest)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %s", err)
			}
			assert.Equal(t, tc.WantRes, dest)
			assert.Equal(t, tc.WantKeys, keys)

			var ptrs []*Counter
			_, err = b.ByIndex(db, tc.IndexName, []byte(tc.QueryKey), &ptrs)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %s", err)
			}
			assert.Equal(t, len(tc.WantRes), len(ptrs))
		})
	}
}

func TestModelBucketPrefixScan(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &Counter{})

	for i, key := range []string{"a1", "a2", "b1", "a3"} {
		_, err := b.Put(db, []byte(key), &Counter{Count: int64(i + 1)})
		assert.Nil(t, err)
	}

	cases := map[string]struct {
		prefix   string
		reverse  bool
		wantKeys []string
	}{
		"ascending": {
			prefix:   "a",
			wantKeys: []string{"a1", "a2", "a3"},
		},
		"descending": {
			prefix:   "a",
			reverse:  true,
			wantKeys: []string{"a3", "a2", "a1"},
		},
		"everything": {
			wantKeys: []string{"a1", "a2", "a3", "b1"},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			it, err := b.PrefixScan(db, []byte(tc.prefix), tc.reverse)
			assert.Nil(t, err)
			defer it.Release()

			var keys []string
			for {
				var c Counter
				key, err := it.LoadNext(&c)
				if errors.ErrIteratorDone.Is(err) {
					break
				}
				assert.Nil(t, err)
				keys = append(keys, string(key))
			}
			assert.Equal(t, tc.wantKeys, keys)
		})
	}
}

package sigs

import (
	"testing"

	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/keyward/keyward/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserModel(t *testing.T) {
	kv := store.MemStore()

	bucket := NewBucket()
	pub := keywardtest.NewKey().PublicKey()
	addr := pub.Address()

	obj, err := bucket.Get(kv, addr)
	require.NoError(t, err)
	assert.Nil(t, obj)

	obj, err = bucket.GetOrCreate(kv, addr)
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.NoError(t, obj.Validate())
	user := AsUser(obj)
	assert.Empty(t, user.PubKey)
	assert.Equal(t, int64(0), user.Sequence)
	require.NoError(t, user.SetPubKey(pub))

	assert.Error(t, user.CheckAndIncrementSequence(5))
	assert.NoError(t, user.CheckAndIncrementSequence(0))
	assert.Error(t, user.CheckAndIncrementSequence(0))
	assert.NoError(t, user.CheckAndIncrementSequence(1))
	assert.Equal(t, int64(2), user.Sequence)

	require.NoError(t, bucket.Save(kv, obj))
	obj2, err := bucket.Get(kv, addr)
	require.NoError(t, err)
	require.NotNil(t, obj2)
	user2 := AsUser(obj2)
	assert.Equal(t, int64(2), user2.Sequence)
	assert.Equal(t, pub.Bytes(), user2.PubKey)
}

func TestUserValidation(t *testing.T) {
	obj := NewUser(nil)
	assert.Error(t, obj.Validate())

	pub := keywardtest.NewKey().PublicKey()
	obj = NewUser(pub.Address())
	assert.NoError(t, obj.Validate())

	// sequence above zero requires a key
	AsUser(obj).Sequence = 17
	assert.Error(t, obj.Validate())
	require.NoError(t, AsUser(obj).SetPubKey(pub))
	assert.NoError(t, obj.Validate())

	// the key cannot be replaced
	require.NoError(t, AsUser(obj).SetPubKey(pub))
	err := AsUser(obj).SetPubKey(keywardtest.NewKey().PublicKey())
	assert.True(t, errors.ErrImmutable.Is(err))

	AsUser(obj).Sequence = -30
	assert.Error(t, obj.Validate())

	AsUser(obj).Sequence = 1
	AsUser(obj).PubKey = []byte("not a key")
	assert.Error(t, obj.Validate())
}

func TestSequenceOverflow(t *testing.T) {
	u := UserData{Sequence: (1 << 53) - 1}
	err := u.CheckAndIncrementSequence((1 << 53) - 1)
	assert.True(t, errors.ErrOverflow.Is(err))
}

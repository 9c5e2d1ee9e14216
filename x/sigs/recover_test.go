package sigs

import (
	"testing"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/keywardtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t testing.TB, key *crypto.PrivateKey, hash []byte) []byte {
	t.Helper()
	sig, err := key.Sign(hash)
	require.NoError(t, err)
	return sig
}

func TestRecover(t *testing.T) {
	key := keywardtest.NewKey()
	hash := crypto.Keccak256([]byte("withdraw 10 ETH"))
	sig := sign(t, key, hash)

	addr, err := Recover(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().Address(), addr)

	// Recovery id given as 0/1 is accepted as well.
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	addr, err = Recover(hash, raw)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().Address(), addr)

	// A different hash recovers a different identity.
	other, err := Recover(crypto.Keccak256([]byte("withdraw 11 ETH")), sig)
	if err == nil {
		assert.NotEqual(t, addr, other)
	}
}

func TestRecoverMalformed(t *testing.T) {
	hash := crypto.Keccak256([]byte("payload"))
	valid := sign(t, keywardtest.NewKey(), hash)

	badV := append([]byte(nil), valid...)
	badV[64] = 5

	zeroR := append([]byte(nil), valid...)
	for i := 0; i < 32; i++ {
		zeroR[i] = 0
	}

	cases := map[string][]byte{
		"empty":              nil,
		"too short":          valid[:64],
		"too long":           append(append([]byte(nil), valid...), 0),
		"invalid recover id": badV,
		"zero r":             zeroR,
		"high s":             highS(t, valid),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Recover(hash, sig)
			assert.True(t, ErrInvalidSignature.Is(err), "%+v", err)
		})
	}
}

func TestPackRoundTrip(t *testing.T) {
	hash := crypto.Keccak256([]byte("batch approval"))
	for i := 0; i < 32; i++ {
		key := keywardtest.NewKey()
		sig := sign(t, key, hash)

		packed, err := Pack(sig)
		require.NoError(t, err)
		unpacked, err := Unpack(packed[:])
		require.NoError(t, err)
		assert.Equal(t, sig, unpacked[:])

		addr, err := RecoverAny(hash, packed[:])
		require.NoError(t, err)
		assert.Equal(t, key.PublicKey().Address(), addr)
	}
}

func TestPackNormalizesRecoveryID(t *testing.T) {
	hash := crypto.Keccak256([]byte("normalize"))
	sig := sign(t, keywardtest.NewKey(), hash)

	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	a, err := Pack(sig)
	require.NoError(t, err)
	b, err := Pack(raw)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPackMalformed(t *testing.T) {
	hash := crypto.Keccak256([]byte("payload"))
	valid := sign(t, keywardtest.NewKey(), hash)

	_, err := Pack(valid[:64])
	assert.True(t, ErrInvalidSignature.Is(err))
	_, err = Pack(highS(t, valid))
	assert.True(t, ErrInvalidSignature.Is(err))
	_, err = Unpack(valid)
	assert.True(t, ErrInvalidSignature.Is(err))
}

func TestBatchRecover(t *testing.T) {
	hash := crypto.Keccak256([]byte("proposal 1"))
	k1, k2, k3 := keywardtest.NewKey(), keywardtest.NewKey(), keywardtest.NewKey()

	s1 := sign(t, k1, hash)
	s2 := sign(t, k2, hash)
	s3 := sign(t, k3, hash)
	p2, err := Pack(s2)
	require.NoError(t, err)

	cases := map[string]struct {
		sigs    [][]byte
		signers []keyward.Address
		dups    []int
		wantErr *errors.Error
	}{
		"distinct signers": {
			sigs:    [][]byte{s1, p2[:], s3},
			signers: []keyward.Address{k1.PublicKey().Address(), k2.PublicKey().Address(), k3.PublicKey().Address()},
		},
		"same signature twice": {
			sigs:    [][]byte{s1, s2, s1},
			signers: []keyward.Address{k1.PublicKey().Address(), k2.PublicKey().Address()},
			dups:    []int{2},
		},
		"compact and standard form of the same signer": {
			sigs:    [][]byte{s2, p2[:]},
			signers: []keyward.Address{k2.PublicKey().Address()},
			dups:    []int{1},
		},
		"invalid signature fails the batch": {
			sigs:    [][]byte{s1, s2[:10]},
			wantErr: ErrInvalidSignature,
		},
		"empty batch": {
			signers: []keyward.Address{},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			signers, dups, err := BatchRecover(hash, tc.sigs)
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.signers, signers)
			assert.Equal(t, tc.dups, dups)
		})
	}
}

func TestVerifierCache(t *testing.T) {
	v, err := NewVerifier(2)
	require.NoError(t, err)

	hash := crypto.Keccak256([]byte("cached"))
	key := keywardtest.NewKey()
	sig := sign(t, key, hash)

	for i := 0; i < 3; i++ {
		addr, err := v.Recover(hash, sig)
		require.NoError(t, err)
		assert.Equal(t, key.PublicKey().Address(), addr)
	}
	assert.Equal(t, 1, v.cache.Len())

	// Failures are not cached.
	_, err = v.Recover(hash, highS(t, sig))
	assert.True(t, ErrInvalidSignature.Is(err))
	assert.Equal(t, 1, v.cache.Len())

	_, err = NewVerifier(0)
	assert.True(t, errors.ErrInput.Is(err))
}

// highS returns the same signature with s replaced by n - s.
func highS(t testing.TB, sig []byte) []byte {
	t.Helper()
	// secp256k1 curve order
	n := []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
		0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
		0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
	}
	out := append([]byte(nil), sig...)
	var borrow int
	for i := 31; i >= 0; i-- {
		d := int(n[i]) - int(sig[32+i]) - borrow
		if d < 0 {
			d += 256
			borrow = 1
		} else {
			borrow = 0
		}
		out[32+i] = byte(d)
	}
	return out
}

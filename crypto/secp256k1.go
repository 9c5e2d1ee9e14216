package crypto

import (
	"crypto/sha256"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
)

const (
	// SignatureSize is the length of a standard r || s || v signature.
	SignatureSize = 65
	// AddressSize is the length of an address derived from a public key.
	AddressSize = 20

	// compactRecoveryBase is the value added to the recovery id in the
	// first byte of the compact encoding used by the secp256k1 library.
	compactRecoveryBase = 27
)

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
	PublicKey() *PublicKey
}

// PrivateKey is a secp256k1 signing key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

var _ Signer = (*PrivateKey)(nil)

// GenPrivKey returns a random new private key
func GenPrivKey() *PrivateKey {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	return &PrivateKey{key: key}
}

// PrivKeyFromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyFromSeed(seed []byte) *PrivateKey {
	raw := sha256.Sum256(seed)
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw[:])}
}

// PrivKeyFromBytes loads a 32 byte private key.
func PrivKeyFromBytes(raw []byte) (*PrivateKey, error) {
	if len(raw) != 32 {
		return nil, errors.Wrapf(errors.ErrInput, "private key must be 32 bytes, got %d", len(raw))
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(raw)}, nil
}

// Bytes returns the 32 byte scalar of the key.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// Sign returns a 65 byte r || s || v signature of the given 32 byte hash. The
// s value is always in the lower half of the curve order and v is 27 or 28.
func (p *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != HashSize {
		return nil, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashSize, len(hash))
	}
	compact := ecdsa.SignCompact(p.key, hash, false)
	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// PublicKey is a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// ParsePublicKey loads a compressed or uncompressed public key.
func ParsePublicKey(raw []byte) (*PublicKey, error) {
	key, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PublicKey{key: key}, nil
}

// Bytes returns the compressed form of the key.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Address returns the 20 byte identity of this key: the last 20 bytes of the
// keccak256 hash of the uncompressed point.
func (p *PublicKey) Address() keyward.Address {
	raw := p.key.SerializeUncompressed()
	return keyward.Address(Keccak256(raw[1:])[HashSize-AddressSize:])
}

// Condition returns the account condition fulfilled by signatures of this
// key.
func (p *PublicKey) Condition() keyward.Condition {
	return keyward.AccountCondition(p.Address())
}

// Verify checks that the signature of the hash was created by this key.
func (p *PublicKey) Verify(hash, sig []byte) bool {
	signer, err := RecoverPublicKey(hash, sig)
	if err != nil {
		return false
	}
	return signer.key.IsEqual(p.key)
}

// RecoverPublicKey returns the public key that created a 65 byte r || s || v
// signature of the given hash. The recovery id v may be 0, 1, 27 or 28.
// Signatures with s in the upper half of the curve order are rejected.
func RecoverPublicKey(hash, sig []byte) (*PublicKey, error) {
	if len(hash) != HashSize {
		return nil, errors.Wrapf(errors.ErrInput, "hash must be %d bytes, got %d", HashSize, len(hash))
	}
	if len(sig) != SignatureSize {
		return nil, errors.Wrapf(errors.ErrInput, "signature must be %d bytes, got %d", SignatureSize, len(sig))
	}
	v := sig[64]
	if v >= compactRecoveryBase {
		v -= compactRecoveryBase
	}
	if v > 1 {
		return nil, errors.Wrapf(errors.ErrInput, "invalid recovery id %d", sig[64])
	}
	if !IsLowS(sig[32:64]) {
		return nil, errors.Wrap(errors.ErrInput, "s value not in the lower half of the curve order")
	}

	compact := make([]byte, SignatureSize)
	compact[0] = compactRecoveryBase + v
	copy(compact[1:], sig[:64])
	key, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &PublicKey{key: key}, nil
}

// IsLowS returns true if the 32 byte big endian scalar is non zero and not
// greater than half of the curve order.
func IsLowS(s []byte) bool {
	if len(s) != 32 {
		return false
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(s); overflow {
		return false
	}
	return !scalar.IsZero() && !scalar.IsOverHalfOrder()
}

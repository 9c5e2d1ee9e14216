package sigs

import (
	"bytes"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// CompactSignatureSize is the length of a packed signature.
const CompactSignatureSize = 64

var nullAddress = make([]byte, crypto.AddressSize)

// Recover returns the address of the key that produced the 65 byte
// r || s || v signature of the 32 byte hash.
func Recover(hash, sig []byte) (keyward.Address, error) {
	return (*Verifier)(nil).Recover(hash, sig)
}

// RecoverAny works like Recover but accepts both the standard and the
// compact signature encoding.
func RecoverAny(hash, sig []byte) (keyward.Address, error) {
	return (*Verifier)(nil).RecoverAny(hash, sig)
}

// BatchRecover recovers all signatures of the same hash. It returns the
// distinct signers in the order of their first occurrence and the indexes of
// every signature whose signer was already seen. A single malformed
// signature fails the whole batch.
//
// Callers counting approvals must treat any duplicate as ErrDuplicateSigner.
func BatchRecover(hash []byte, sigs [][]byte) ([]keyward.Address, []int, error) {
	return (*Verifier)(nil).BatchRecover(hash, sigs)
}

func recoverKey(hash, sig []byte) (*crypto.PublicKey, error) {
	pub, err := crypto.RecoverPublicKey(hash, sig)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	if bytes.Equal(pub.Address(), nullAddress) {
		return nil, errors.Wrap(ErrInvalidSignature, "null signer")
	}
	return pub, nil
}

// Pack converts a 65 byte r || s || v signature into its 64 byte compact
// form. The recovery id is stored in the highest bit of s, which is always
// zero for a signature with s in the lower half of the curve order.
func Pack(sig []byte) ([CompactSignatureSize]byte, error) {
	var out [CompactSignatureSize]byte
	if len(sig) != crypto.SignatureSize {
		return out, errors.Wrapf(ErrInvalidSignature, "want %d bytes, got %d", crypto.SignatureSize, len(sig))
	}
	v, err := recoveryID(sig[64])
	if err != nil {
		return out, err
	}
	if !crypto.IsLowS(sig[32:64]) {
		return out, errors.Wrap(ErrInvalidSignature, "high s value")
	}
	copy(out[:], sig[:64])
	out[32] |= v << 7
	return out, nil
}

// Unpack is the inverse of Pack. The recovery id of the result is 27 or 28.
func Unpack(sig []byte) ([crypto.SignatureSize]byte, error) {
	var out [crypto.SignatureSize]byte
	if len(sig) != CompactSignatureSize {
		return out, errors.Wrapf(ErrInvalidSignature, "want %d bytes, got %d", CompactSignatureSize, len(sig))
	}
	copy(out[:], sig)
	v := out[32] >> 7
	out[32] &= 0x7f
	out[64] = 27 + v
	return out, nil
}

func recoveryID(v byte) (byte, error) {
	switch v {
	case 0, 1:
		return v, nil
	case 27, 28:
		return v - 27, nil
	default:
		return 0, errors.Wrapf(ErrInvalidSignature, "recovery id %d", v)
	}
}

package sigs

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// DefaultCacheSize is the number of recovered signatures remembered by the
// verifier used by the decorator.
const DefaultCacheSize = 4096

// Verifier recovers signers and memoizes the results. The same signature
// is usually recovered twice, once during check and once during deliver.
//
// A nil Verifier is valid and does not cache anything.
type Verifier struct {
	cache *lru.Cache
}

// NewVerifier returns a verifier remembering up to size recoveries.
func NewVerifier(size int) (*Verifier, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return &Verifier{cache: cache}, nil
}

// Recover returns the address of the key that produced the 65 byte
// r || s || v signature of the 32 byte hash.
func (v *Verifier) Recover(hash, sig []byte) (keyward.Address, error) {
	pub, err := v.RecoverPublicKey(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.Address(), nil
}

// RecoverPublicKey returns the key that produced the 65 byte r || s || v
// signature of the 32 byte hash.
func (v *Verifier) RecoverPublicKey(hash, sig []byte) (*crypto.PublicKey, error) {
	if len(sig) != crypto.SignatureSize {
		return nil, errors.Wrapf(ErrInvalidSignature, "want %d bytes, got %d", crypto.SignatureSize, len(sig))
	}
	if v == nil || v.cache == nil {
		return recoverKey(hash, sig)
	}
	key := string(hash) + string(sig)
	if pub, ok := v.cache.Get(key); ok {
		return pub.(*crypto.PublicKey), nil
	}
	pub, err := recoverKey(hash, sig)
	if err != nil {
		return nil, err
	}
	v.cache.Add(key, pub)
	return pub, nil
}

// RecoverAny accepts both the standard and the compact encoding.
func (v *Verifier) RecoverAny(hash, sig []byte) (keyward.Address, error) {
	if len(sig) == CompactSignatureSize {
		full, err := Unpack(sig)
		if err != nil {
			return nil, err
		}
		return v.Recover(hash, full[:])
	}
	return v.Recover(hash, sig)
}

// BatchRecover recovers all signatures of the same hash. See the package
// level BatchRecover function.
func (v *Verifier) BatchRecover(hash []byte, sigs [][]byte) ([]keyward.Address, []int, error) {
	var (
		signers    = make([]keyward.Address, 0, len(sigs))
		duplicates []int
		seen       = make(map[string]struct{}, len(sigs))
	)
	for i, sig := range sigs {
		addr, err := v.RecoverAny(hash, sig)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "signature %d", i)
		}
		if _, ok := seen[string(addr)]; ok {
			duplicates = append(duplicates, i)
			continue
		}
		seen[string(addr)] = struct{}{}
		signers = append(signers, addr)
	}
	return signers, duplicates, nil
}

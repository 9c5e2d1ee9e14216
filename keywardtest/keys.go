package keywardtest

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
)

// NewKey returns a random secp256k1 key.
func NewKey() *crypto.PrivateKey {
	return crypto.GenPrivKey()
}

// NewCondition returns the account condition of a random key.
func NewCondition() keyward.Condition {
	return NewKey().PublicKey().Condition()
}

// SeqKey returns a deterministic key for the given label.
func SeqKey(label string) *crypto.PrivateKey {
	return crypto.PrivKeyFromSeed([]byte(label))
}

package sigs

import (
	"encoding/binary"

	"github.com/keyward/keyward"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// SignCodeV1 is the current way to prefix the bytes we use to build
// a signature
var SignCodeV1 = []byte{0, 0xCA, 0xFE, 1}

// VerifyTxSignatures checks all the signatures on the tx and increments the
// nonce of every signer.
//
// returns list of signer conditions (possibly empty),
// or error if any signature is invalid
func VerifyTxSignatures(db keyward.KVStore, tx SignedTx, chainID string, v *Verifier) ([]keyward.Condition, error) {
	bz, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	sigs := tx.GetSignatures()

	signers := make([]keyward.Condition, 0, len(sigs))
	for i, sig := range sigs {
		signer, err := VerifySignature(db, sig, bz, chainID, v)
		if err != nil {
			return nil, errors.Wrapf(err, "signature %d", i)
		}
		for _, s := range signers {
			if s.Equals(signer) {
				return nil, errors.Wrapf(ErrDuplicateSigner, "signature %d", i)
			}
		}
		signers = append(signers, signer)
	}
	return signers, nil
}

// VerifySignature recovers the signer of one signature, checks its nonce
// and stores the incremented nonce.
func VerifySignature(db keyward.KVStore, sig *StdSignature, signBytes []byte, chainID string, v *Verifier) (keyward.Condition, error) {
	if err := sig.Validate(); err != nil {
		return nil, err
	}

	toSign, err := BuildSignBytes(signBytes, chainID, sig.Sequence)
	if err != nil {
		return nil, err
	}
	raw := sig.Signature
	if len(raw) == CompactSignatureSize {
		full, err := Unpack(raw)
		if err != nil {
			return nil, err
		}
		raw = full[:]
	}
	pub, err := v.RecoverPublicKey(toSign, raw)
	if err != nil {
		return nil, err
	}
	addr := pub.Address()

	bucket := NewBucket()
	obj, err := bucket.GetOrCreate(db, addr)
	if err != nil {
		return nil, err
	}
	user := AsUser(obj)
	if err := user.SetPubKey(pub); err != nil {
		return nil, err
	}
	if err := user.CheckAndIncrementSequence(sig.Sequence); err != nil {
		return nil, err
	}
	if err := bucket.Save(db, obj); err != nil {
		return nil, err
	}
	return keyward.AccountCondition(addr), nil
}

/*
BuildSignBytes combines all info on the actual tx before signing

We use the following format:

version | len(chainID) | chainID      | nonce             | signBytes
4bytes  | uint8        | ascii string | int64 (bigendian) | serialized transaction

This is then hashed with keccak256, so that the signed value always has
the 32 bytes the secp256k1 signature requires.
*/
func BuildSignBytes(signBytes []byte, chainID string, seq int64) ([]byte, error) {
	if seq < 0 {
		return nil, errors.Wrap(ErrInvalidSequence, "negative")
	}
	if !keyward.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}

	nonce := make([]byte, 8)
	binary.BigEndian.PutUint64(nonce, uint64(seq))

	output := make([]byte, 0, 4+1+len(chainID)+8+len(signBytes))
	output = append(output, SignCodeV1...)
	output = append(output, uint8(len(chainID)))
	output = append(output, chainID...)
	output = append(output, nonce...)
	output = append(output, signBytes...)
	return crypto.Keccak256(output), nil
}

// BuildSignBytesTx calculates the sign bytes given a tx
func BuildSignBytesTx(tx SignedTx, chainID string, seq int64) ([]byte, error) {
	signBytes, err := tx.GetSignBytes()
	if err != nil {
		return nil, err
	}
	return BuildSignBytes(signBytes, chainID, seq)
}

// SignTx creates a signature for the given tx
func SignTx(signer crypto.Signer, tx SignedTx, chainID string, seq int64) (*StdSignature, error) {
	signBytes, err := BuildSignBytesTx(tx, chainID, seq)
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(signBytes)
	if err != nil {
		return nil, err
	}
	return &StdSignature{
		Signature: sig,
		Sequence:  seq,
	}, nil
}

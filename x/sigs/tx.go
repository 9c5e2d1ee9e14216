package sigs

import (
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/crypto"
	"github.com/keyward/keyward/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the sigs.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	// Usually this is the serialized message.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a recoverable signature together with the nonce of the
// signer. The signer identity is recovered from the signature.
type StdSignature struct {
	Sequence  int64  `json:"sequence"`
	Signature []byte `json:"signature"`
}

func (s *StdSignature) Marshal() ([]byte, error) {
	return codec.Marshal(s)
}

func (s *StdSignature) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, s)
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	switch len(s.Signature) {
	case 0:
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	case crypto.SignatureSize, CompactSignatureSize:
		return nil
	default:
		return errors.Wrapf(ErrInvalidSignature, "signature length %d", len(s.Signature))
	}
}

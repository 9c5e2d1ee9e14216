package app

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
	"github.com/keyward/keyward/x/sigs"
)

// Tx carries a single message together with the signatures of all its
// signers.
type Tx struct {
	Msg        keyward.Msg          `json:"msg"`
	Signatures []*sigs.StdSignature `json:"signatures"`
}

var _ keyward.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (keyward.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(bz); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return codec.Marshal(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, tx)
}

func (tx *Tx) GetMsg() (keyward.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrState, "message is nil")
	}
	return tx.Msg, nil
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign. Signatures are never part of the
// signed data.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Msg: tx.Msg}
	return unsigned.Marshal()
}

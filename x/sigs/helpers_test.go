package sigs

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/keywardtest"
)

// StdTx is a minimal signed transaction carrying a message with a fixed
// serialization.
type StdTx struct {
	keyward.Tx
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ keyward.Tx = (*StdTx)(nil)

func NewStdTx(payload []byte) *StdTx {
	msg := &keywardtest.Msg{RoutePath: "test/payload", Serialized: payload}
	return &StdTx{Tx: &keywardtest.Tx{Msg: msg}}
}

func (tx StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

func (tx StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	return msg.Marshal()
}

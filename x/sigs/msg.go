package sigs

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/codec"
	"github.com/keyward/keyward/errors"
)

func init() {
	codec.RegisterMsg(&BumpSequenceMsg{}, "keyward/sigs/BumpSequenceMsg")
}

const (
	pathBumpSequenceMsg = "sigs/bump_sequence"

	maxSequenceIncrement = 1000
	minSequenceIncrement = 1
)

// BumpSequenceMsg increments the nonce of the main signer by the given
// value. It invalidates every signature produced in advance for the skipped
// nonces.
type BumpSequenceMsg struct {
	Increment uint32 `json:"increment"`
}

var _ keyward.Msg = (*BumpSequenceMsg)(nil)

func (msg *BumpSequenceMsg) Marshal() ([]byte, error) {
	return codec.Marshal(msg)
}

func (msg *BumpSequenceMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, msg)
}

func (msg *BumpSequenceMsg) Validate() error {
	if msg.Increment < minSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must be at least %d", minSequenceIncrement)
	}
	if msg.Increment > maxSequenceIncrement {
		return errors.Wrapf(errors.ErrMsg, "increment must not be greater than %d", maxSequenceIncrement)
	}
	return nil
}

func (BumpSequenceMsg) Path() string {
	return pathBumpSequenceMsg
}

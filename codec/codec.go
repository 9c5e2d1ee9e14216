/*
Package codec holds the binary and JSON encoding shared by all state models
and messages.

Every message type must be registered with RegisterMsg before it can be
carried inside of a transaction. Models are encoded without a type prefix and
do not need a registration.
*/
package codec

import (
	"github.com/keyward/keyward"
	"github.com/keyward/keyward/errors"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*keyward.Msg)(nil), nil)
}

// Codec returns the shared amino codec.
func Codec() *amino.Codec {
	return cdc
}

// RegisterMsg declares a concrete message type under given name. Message
// must be a pointer so that decoding results in a type implementing
// keyward.Msg.
func RegisterMsg(msg keyward.Msg, name string) {
	cdc.RegisterConcrete(msg, name, nil)
}

// RegisterInterface declares an interface whose implementations are encoded
// with a type prefix. ptr must be a nil pointer to the interface.
func RegisterInterface(ptr interface{}) {
	cdc.RegisterInterface(ptr, nil)
}

// RegisterConcrete declares any other concrete type that is used behind an
// interface.
func RegisterConcrete(o interface{}, name string) {
	cdc.RegisterConcrete(o, name, nil)
}

// Marshal serializes given object into its binary representation.
func Marshal(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal %T: %s", o, err)
	}
	return bz, nil
}

// Unmarshal loads binary data into given pointer.
func Unmarshal(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal %T: %s", ptr, err)
	}
	return nil
}

// MarshalJSON returns the JSON representation used by queries and the
// command line tools.
func MarshalJSON(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalJSONIndent(o, "", "  ")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "json %T: %s", o, err)
	}
	return bz, nil
}

// UnmarshalJSON loads JSON data into given pointer.
func UnmarshalJSON(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalJSON(bz, ptr); err != nil {
		return errors.Wrapf(errors.ErrInput, "json %T: %s", ptr, err)
	}
	return nil
}

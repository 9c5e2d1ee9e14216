package keyward

import (
	"reflect"

	"github.com/keyward/keyward/errors"
)

// Msg is message for the engine to take an action
// (Make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Return the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Multiple types may have the same value, and will end up at the
	// same Handler.
	//
	// Must be alphanumeric [0-9A-Za-z_\-]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one test does not pass and message is considered
	// invalid.
	// This validation performs only tests that do not require access to
	// the state.
	Validate() error
}

// Marshaller is anything that can be represented in binary
//
// Marshall may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data
// and errors should be expected.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender (cryptographic signatures),
// and anything else needed to pass through middleware.
//
// Each Application must define their own tx type, which
// embeds all the middlewares that we wish to use.
// sigs.SignedTx is a common interface that many apps will wish to
// support.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := ExtractMsgFromSum(tx)
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}

	// Destination must be a pointer to the message type.
	if reflect.TypeOf(destination).Kind() != reflect.Ptr {
		return errors.Wrap(errors.ErrType, "invalid destination type")
	}
	msgVal := reflect.ValueOf(msg)
	if msgVal.Kind() == reflect.Ptr {
		if msgVal.IsNil() {
			return errors.Wrap(errors.ErrState, "message is nil")
		}
		msgVal = msgVal.Elem()
	}
	dest := reflect.ValueOf(destination).Elem()
	if !msgVal.Type().AssignableTo(dest.Type()) {
		return errors.Wrapf(errors.ErrType, "want %T message, got %T", destination, msg)
	}
	dest.Set(msgVal)

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}

// ExtractMsgFromSum returns the message carried by the transaction or an
// error if the transaction does not carry one.
func ExtractMsgFromSum(tx Tx) (Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrState, "message is nil")
	}
	return msg, nil
}

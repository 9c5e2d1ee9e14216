package errors

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Root errors shared by all extensions. Codes 2 to 99 are reserved for this
// package.
var (
	// ErrUnauthorized is returned when the signers of a transaction
	// are not allowed to perform the action.
	ErrUnauthorized = Register(2, "unauthorized")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = Register(3, "not found")
	// ErrMsg is returned for a message that cannot be handled.
	ErrMsg = Register(4, "invalid message")
	// ErrModel is returned for an entity that cannot be persisted.
	ErrModel = Register(5, "invalid model")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = Register(6, "duplicate")
	// ErrHuman marks a code path that correct wiring never reaches.
	ErrHuman = Register(7, "coding error")
	// ErrImmutable is returned on an attempt to modify a frozen value.
	ErrImmutable = Register(8, "cannot be modified")
	// ErrEmpty is returned when a required value is missing.
	ErrEmpty = Register(9, "value is empty")
	// ErrState is returned when an entity is not in a state that allows
	// the operation.
	ErrState = Register(10, "invalid state")
	// ErrType is returned when a value has an unexpected type.
	ErrType = Register(11, "invalid type")
	// ErrInsufficientAmount is returned when a balance does not cover an
	// amount.
	ErrInsufficientAmount = Register(12, "insufficient amount")
	// ErrAmount is returned for a malformed or non positive amount.
	ErrAmount = Register(13, "invalid amount")
	// ErrInput is returned for malformed input.
	ErrInput = Register(14, "invalid input")
	// ErrExpired is returned when a time window has passed.
	ErrExpired = Register(15, "expired")
	// ErrOverflow is returned when a result does not fit its type.
	ErrOverflow = Register(16, "an operation cannot be completed due to value overflow")
	// ErrCurrency is returned when assets of different tickers are mixed.
	ErrCurrency = Register(17, "currency")
	// ErrDatabase is returned when the underlying storage fails.
	ErrDatabase = Register(18, "database")
	// ErrIteratorDone is returned by an exhausted iterator.
	ErrIteratorDone = Register(19, "iterator done")

	// ErrPanic is set only by Recover. Its message is never exposed
	// outside of debug mode.
	ErrPanic = Register(111222, "panic")
)

// usedCodes maps every registered code to its error. Code 1 is the
// internal error code and cannot be registered.
var usedCodes = map[uint32]*Error{
	1: nil,
}

// Register declares a root error. It panics when the code is already
// taken, so it must only be called while the program initializes.
func Register(code uint32, description string) *Error {
	if e, ok := usedCodes[code]; ok {
		panic(fmt.Sprintf("error with code %d is already registered: %q", code, e.desc))
	}
	err := &Error{code: code, desc: description}
	usedCodes[code] = err
	return err
}

// Error is a root error. Errors created at runtime wrap one of the root
// errors, which gives clients a stable code to act upon.
type Error struct {
	code uint32
	desc string
}

func (e Error) Error() string {
	return e.desc
}

func (e Error) ABCICode() uint32 {
	return e.code
}

// New is a shortcut for Wrap(e, description).
func (e *Error) New(description string) error {
	return Wrap(e, description)
}

// Newf is a shortcut for Wrapf(e, description, args...).
func (e *Error) Newf(description string, args ...interface{}) error {
	return Wrapf(e, description, args...)
}

// Is returns true if err is e, wraps e or is a collection holding an error
// that is e. A nil e only matches a nil error, typed nil included.
func (e *Error) Is(err error) bool {
	if e == nil {
		return isNilErr(err)
	}
	for {
		if err == e {
			return true
		}
		if u, ok := err.(unpacker); ok {
			for _, member := range u.Unpack() {
				if e.Is(member) {
					return true
				}
			}
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
}

// Wrap adds description to err. The innermost wrap records a stack trace.
// Wrapping nil returns nil.
func Wrap(err error, description string) error {
	if err == nil {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	return &wrappedError{parent: err, msg: description}
}

// Wrapf is Wrap with a formatted description.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string {
	return fmt.Sprintf("%s: %s", e.msg, e.parent.Error())
}

func (e *wrappedError) Cause() error {
	return e.parent
}

// Recover must be deferred. It stops a panic and stores it in err as an
// ErrPanic.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Wrapf(ErrPanic, "%v", r)
	}
}

// WithType wraps err with the type name of obj.
func WithType(err error, obj interface{}) error {
	return Wrap(err, fmt.Sprintf("%T", obj))
}

type causer interface {
	Cause() error
}

// isNilErr returns true for nil and for a nil pointer stored in the error
// interface.
func isNilErr(err error) bool {
	if err == nil {
		return true
	}
	if val := reflect.ValueOf(err); val.Kind() == reflect.Ptr {
		return val.IsNil()
	}
	return false
}

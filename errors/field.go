package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches the name of the offending attribute to err. It returns nil
// for a nil err, so validation code can call it unconditionally.
//
// Names follow Go naming. Nested attributes are joined with a dot and
// slice elements use their index, for example Transfers.3.Recipient.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField adds the field error, if any, to the accumulated errors.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

func (err *fieldError) Field() string {
	return err.field
}

type fielder interface {
	Field() string
}

// FieldErrors walks the error tree and returns the outermost errors created
// for fieldName. Collections are searched branch by branch.
func FieldErrors(err error, fieldName string) []error {
	var res []error
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok && f.Field() == fieldName {
			return append(res, err)
		}
		switch e := err.(type) {
		case unpacker:
			for _, child := range e.Unpack() {
				res = append(res, FieldErrors(child, fieldName)...)
			}
			return res
		case causer:
			err = e.Cause()
		default:
			return res
		}
	}
	return res
}

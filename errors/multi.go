package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If only one non nil error is given it is returned as is. When more than
// one error is given, the result carries all of them and reports the ABCI
// code of the first one.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	}
	return res
}

type multiErr []error

func (errs multiErr) Error() string {
	points := make([]string, len(errs))
	for i, err := range errs {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(errs), strings.Join(points, "\n\t"))
}

// ABCICode returns the code of the first error, consistent with the fail
// fast approach.
func (errs multiErr) ABCICode() uint32 {
	return abciCode(errs[0])
}

// Unpack implements unpacker interface.
func (errs multiErr) Unpack() []error {
	return errs
}

// unpacker is implemented by errors that represent a collection of errors.
type unpacker interface {
	Unpack() []error
}

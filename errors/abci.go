package errors

import "fmt"

const (
	// SuccessABCICode is the code of a successfully processed request.
	SuccessABCICode = 0

	// Errors that were not registered are reported with this code and a
	// generic log message.
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

// ABCIInfo returns the code and log of an ABCI response describing err.
//
// Only registered errors expose their message. Any other error is internal
// and its message is replaced with a generic one unless debug is set. In
// debug mode the log carries the full formatting of err.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	code := abciCode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return code, internalABCILog
	default:
		return code, err.Error()
	}
}

type coder interface {
	ABCICode() uint32
}

// abciCode returns the code of the first error in the cause chain that
// declares one.
func abciCode(err error) uint32 {
	if isNilErr(err) {
		return SuccessABCICode
	}
	for {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			return internalABCICode
		}
		err = c.Cause()
	}
}

/*
Package assert provides the small set of test assertions used across the
keyward packages. Every assertion stops the test on failure.
*/
package assert

import (
	"reflect"

	"github.com/keyward/keyward/errors"
)

// Tester is the minimal subset of testing.TB needed to run most assert commands
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// Nil fails the test if given value is not nil.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		// Use %+v so that if we are printing an error that supports
		// stack traces then a full stack trace is shown.
		t.Fatalf("want a nil value, got %+v", value)
	}
}

// NotNil fails the test if given value is nil.
func NotNil(t Tester, value interface{}) {
	t.Helper()
	if isNil(value) {
		t.Fatalf("want a non nil value, got %#v", value)
	}
}

func isNil(value interface{}) (isnil bool) {
	if value == nil {
		return true
	}

	defer func() {
		if recover() != nil {
			isnil = false
		}
	}()

	// The argument must be a chan, func, interface, map, pointer, or slice
	// value; if it is not, IsNil panics.
	return reflect.ValueOf(value).IsNil()
}

// Equal fails the test if two values are not equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics will run given function and recover any panic. It will fail the test
// if given function call did not panic.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// IsErr is a convenient helper that checks if the errors are a match
// and prints out the difference if not as well as failing the assertion.
// Use a nil *errors.Error as want to require no error.
func IsErr(t Tester, want, got error) {
	t.Helper()

	if want == got {
		return
	}

	type comparator interface {
		Is(error) bool
	}

	if want, ok := want.(comparator); ok && want.Is(got) {
		return
	}

	t.Fatalf("want %q, got %+v", want, got)
}

// FieldError ensures that given error contains the exact match of a single
// field error, tested by its type (.Is method call).
// To test that no error was found for a given field name, use `nil` as the
// match value.
func FieldError(t Tester, err error, fieldName string, want *errors.Error) {
	t.Helper()

	errs := errors.FieldErrors(err, fieldName)

	if want == nil {
		if len(errs) == 0 {
			return
		}
		for i, e := range errs {
			t.Logf("\terror %d: %q", i+1, e)
		}
		t.Fatalf("expected no %q field error, got %d", fieldName, len(errs))
	}

	switch len(errs) {
	case 0:
		t.Fatalf("no %q field error found", fieldName)
	case 1:
		if !want.Is(errs[0]) {
			t.Fatalf("unexpected %q field error: %q", fieldName, errs[0])
		}
	default:
		for i, e := range errs {
			t.Logf("\terror %d: %q", i+1, e)
		}
		t.Fatalf("want one %q field error, got %d", fieldName, len(errs))
	}
}

/*
Package errors implements custom error interfaces for keyward.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Extensions that need their own
root errors (x/guardian, x/proposal, x/sigs, ...) register them in their own
package using Register(code, description) with a code from the 100-199 range.

For reusing errors use ErrXyz.New and ErrXyz.Newf, or Wrap and Wrapf.
Code stands for ABCI error code, which allows to distinguish types of errors
on the client side and act accordingly.

There is also support for stacktraces. Please ensure you create the custom
error using ErrXyz.New("...") or errors.Wrap(err, "...") at the point of
creation to ensure we attach a stacktrace. If you wrap multiple times, we only
record the first wrap with the stacktrace. (And don't do this as a global
`var ErrFoo = errors.ErrHuman.New("foo")` or you will get a useless
stacktrace).

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context
for the error

	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors

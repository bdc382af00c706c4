package codegen

import "fmt"

// Error is a code-generation diagnostic. Unlike the parser and the
// type-checker, codegen only runs once type-checking has already passed, so
// every failure here is unexpected: a name the earlier passes should have
// caught, or an internal invariant (missing alloca, unknown class) that
// signals a bug in an earlier stage rather than a malformed program.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "codegen: " + e.Msg }

func errf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

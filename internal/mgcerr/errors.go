// Package mgcerr defines the error kinds shared by every stage of the
// MGCInts pipeline (lexers, the parser driver, command handlers, the linker)
// and the source-trace wrapper used to surface them to a caller.
package mgcerr

import "fmt"

// ParamError signals that a parameter lexer did not match at the cursor.
// It is a recoverable, internal signal: the parser driver catches it to try
// the next command variant and it should never reach a caller of
// compiler.ProcessFile.
type ParamError struct {
	Msg string
}

func (e *ParamError) Error() string { return e.Msg }

func NewParamError(format string, args ...any) *ParamError {
	return &ParamError{Msg: fmt.Sprintf(format, args...)}
}

// RuntimeError is a framework-invariant violation: duplicate label, joining
// a stream to itself, double feature import, and so on.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// SyntaxError is malformed MML: an unknown command or directive, or no
// variant accepted the following parameters. Trailing text after a
// preprocessor directive is reported as a RuntimeError instead. It is a
// sub-kind of RuntimeError (spec.md §4.A).
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return e.Msg }

func NewSyntaxError(format string, args ...any) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

// CommandError is a semantic violation raised by a command's own apply
// logic: an out-of-range note, an unresolved pointer label, a write outside
// a declared writable range. It is also a sub-kind of RuntimeError.
type CommandError struct {
	Msg string
}

func (e *CommandError) Error() string { return e.Msg }

func NewCommandError(format string, args ...any) *CommandError {
	return &CommandError{Msg: fmt.Sprintf(format, args...)}
}

// ArgumentError is framework misuse: an invalid engine definition, a
// malformed builder configuration. Raised at setup time, never mid-compile.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

func NewArgumentError(format string, args ...any) *ArgumentError {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// IsRuntimeKind reports whether err is one of RuntimeError, SyntaxError, or
// CommandError -- the three kinds the parser driver wraps with a Trace.
func IsRuntimeKind(err error) bool {
	switch err.(type) {
	case *RuntimeError, *SyntaxError, *CommandError:
		return true
	default:
		return false
	}
}

package cerr

import (
	"errors"
	"fmt"
	"runtime"
)

// Error is the runtime's canonical error value: a stable Code, a message
// meant for the user's stderr, and the underlying cause for logs. A stack
// trace is only captured for kinds that indicate a genuine runtime fault
// (IOError, ExecutionLimitError, GenericFailure) rather than ordinary
// scripting mistakes (CommandNotFound, ReadonlyError, ...), matching the
// severity split the teacher drew between logged-as-error and logged-as-info.
type Error struct {
	Code    Code
	Prog    string // e.g. "grep", "bash"; empty means shell-level ("bash: ...")
	Context string
	Msg     string
	Err     error
	Stack   string
	Line    int // 1-based source line, 0 if not applicable
	Column  int // 1-based source column, 0 if not applicable
}

func isFaultKind(c Code) bool {
	switch c {
	case IOError, ExecutionLimitError, GenericFailure:
		return true
	default:
		return false
	}
}

// New builds an Error, capturing a stack trace for fault-like kinds.
func New(code Code, prog, context, msg string, underlying error) *Error {
	e := &Error{Code: code, Prog: prog, Context: context, Msg: msg, Err: underlying}
	if isFaultKind(code) {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		e.Stack = string(buf[:n])
	}
	return e
}

// NewAt attaches a source position, for LexError/ParseError.
func NewAt(code Code, line, column int, context, msg string) *Error {
	e := New(code, "bash", context, msg, nil)
	e.Line, e.Column = line, column
	return e
}

// Error renders the spec.md §7 stderr line format:
// "<progname>: <context>: <message>\n" for builtins, "bash: <context>:
// <message>\n" for shell-level errors. The trailing newline is added by
// the caller when writing to stderr, not embedded here.
func (e *Error) Error() string {
	prog := e.Prog
	if prog == "" {
		prog = "bash"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s: %s", prog, e.Line, e.Context, e.Msg)
	}
	if e.Context == "" {
		return fmt.Sprintf("%s: %s", prog, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", prog, e.Context, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode is the process exit code this error should surface as.
func (e *Error) ExitCode() int { return e.Code.ExitCode() }

// Is reports whether err carries the given Code, unwrapping as needed.
func Is(err error, code Code) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// ExitCodeOf extracts the exit code a result should use for err, defaulting
// to 1 (generic failure) for errors that never went through this package.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.ExitCode()
	}
	return 1
}

// Package anaerr defines the error kinds of spec.md §7 as typed,
// errors.Is/As-compatible values, replacing the teacher's log.Fatal
// calls (appropriate for a standalone binary) with structured errors a
// library caller can inspect.
//
// ValidationFailure is deliberately absent: spec.md §7 is explicit that
// it is not an error but a normal roll-out outcome, surfaced as a
// validate.Outcome value.
package anaerr

import "fmt"

// Kind classifies an anagramist error per spec.md §7.
type Kind int

const (
	// UsageError is a malformed command or flag combination.
	UsageError Kind = iota
	// ConfigError is a missing vocabulary, oracle, or store at startup.
	ConfigError
	// StoreError is persistence I/O or corruption.
	StoreError
	// OracleError is a scorer inference failure.
	OracleError
	// InvariantViolation indicates a bug: a precondition the caller
	// should have already checked was violated.
	InvariantViolation
)

// Error implements the error interface directly on Kind, so a bare
// Kind value (e.g. anaerr.StoreError) is itself usable as an
// errors.Is target against a wrapped *Error of the same Kind.
func (k Kind) Error() string {
	switch k {
	case UsageError:
		return "usage error"
	case ConfigError:
		return "config error"
	case StoreError:
		return "store error"
	case OracleError:
		return "oracle error"
	case InvariantViolation:
		return "invariant violation"
	default:
		return "unknown error"
	}
}

// Error wraps an underlying cause with a Kind so callers can branch on
// it with errors.As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap allows errors.Is/As to see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an *Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether target is the same Kind as e, so that
// errors.Is(err, anaerr.StoreError) matches any *Error of that Kind
// regardless of Op or wrapped cause.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

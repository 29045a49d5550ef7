package coalesce

import (
	"fmt"

	"github.com/pkg/errors"
)

// Message templates for input errors, grounded on the teacher's
// errors.go sentinel-constant style.
const (
	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"
	UnrecognizedKeywordError    = "%s is not a recognized value for %s"
	OutOfRangeFloatError        = "%s %f is out of range [%f, %f]"
)

// InputError is the error channel for invalid or inconsistent caller
// input (spec.md §7). It is always safe to recover from: the caller
// fixes the input and retries without touching already-allocated
// simulator state.
type InputError struct {
	Section string
	Err     error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error in %s: %s", e.Section, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err as an InputError attributed to the named
// configuration section.
func NewInputError(section string, err error) error {
	if err == nil {
		return nil
	}
	return &InputError{Section: section, Err: err}
}

// LibraryError is the error channel for internal failures: allocator
// exhaustion, violated invariants, and failures bubbled up verbatim from
// the tables collaborator. A LibraryError terminates the current
// replicate; the simulator object remains safe to destroy but is not
// safe to reuse.
type LibraryError struct {
	Op  string
	Err error
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("library error during %s: %s", e.Op, e.Err)
}

func (e *LibraryError) Unwrap() error { return e.Err }

// NewLibraryError wraps err as a LibraryError, attaching a stack trace
// via pkg/errors the same way the teacher's config validation wraps
// sentinel errors with context.
func NewLibraryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &LibraryError{Op: op, Err: errors.Wrap(err, op)}
}

// checkKeyword reports an input error if got does not appear among
// allowed. Mirrors the teacher's checkKeyword helper used throughout
// evoepi_config.go's per-section Validate methods.
func checkKeyword(section, field, got string, allowed ...string) error {
	for _, a := range allowed {
		if got == a {
			return nil
		}
	}
	return NewInputError(section, fmt.Errorf(UnrecognizedKeywordError, got, field))
}

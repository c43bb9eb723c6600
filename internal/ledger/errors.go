package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Query when the ledger has no state for the id.
var ErrNotFound = errors.New("ledger: state not found")

// ErrorKind classifies ledger failures. The distinction matters for retry
// policy: rejections are terminal for the request, infrastructure failures
// are retry-eligible after re-reading state.
type ErrorKind string

const (
	// KindRejection means the ledger executed the operation and refused it
	// (wrong holder, unknown item, illegal transition). Never retried.
	KindRejection ErrorKind = "REJECTION"

	// KindInfrastructure means the outcome is unknown or the ledger was
	// unreachable (transport error, timeout, gateway 5xx). Callers resolve
	// unknown outcomes by re-querying state, never by blind resubmission.
	KindInfrastructure ErrorKind = "INFRASTRUCTURE"
)

// Error is a typed ledger failure.
//
// Reason carries the raw ledger revert text for operator diagnosis. Its
// wording is ledger-implementation-defined and is not a stable contract.
type Error struct {
	Kind   ErrorKind
	Op     string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("ledger %s: %s: %s", e.Kind, e.Op, e.Reason)
	}
	return fmt.Sprintf("ledger %s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is a ledger business rejection.
// Uses errors.As to handle wrapped errors.
func IsRejection(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == KindRejection
}

// IsInfrastructure reports whether err is a transport/timeout failure.
func IsInfrastructure(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Kind == KindInfrastructure
}

// NewRejection builds a business-rejection error.
func NewRejection(op, reason string) *Error {
	return &Error{Kind: KindRejection, Op: op, Reason: reason}
}

// NewInfrastructure builds a retry-eligible infrastructure error.
func NewInfrastructure(op, reason string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Op: op, Reason: reason, Err: err}
}

package custody

import (
	"errors"
	"fmt"

	"github.com/ledgertrace/custodia/internal/ledger"
)

// OpError represents a failed custody or waste operation.
//
// Every failure carries a stable machine-readable code plus a human-readable
// message. The raw ledger rejection text, when present, rides along in
// Reason for operator diagnosis; its wording is ledger-defined and is not a
// programmatic contract.
type OpError struct {
	// Code identifies the error category.
	Code OpErrorCode

	// Message is a human-readable description.
	Message string

	// ItemID identifies the affected material or waste record.
	ItemID string

	// Reason is the raw ledger rejection text, if any.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// OpErrorCode categorizes operation failures.
type OpErrorCode string

const (
	// ErrCodeValidation indicates malformed or missing input. Client's
	// fault; never retried.
	ErrCodeValidation OpErrorCode = "VALIDATION"

	// ErrCodeInvalidGeometry indicates a bad location shape or coordinates
	// out of range. Same class as validation.
	ErrCodeInvalidGeometry OpErrorCode = "INVALID_GEOMETRY"

	// ErrCodeNotFound indicates the referenced item has no mirror document.
	ErrCodeNotFound OpErrorCode = "NOT_FOUND"

	// ErrCodeLedgerRejected indicates the ledger refused the operation.
	// Terminal for the request.
	ErrCodeLedgerRejected OpErrorCode = "LEDGER_REJECTED"

	// ErrCodeLedgerUnavailable indicates a transport or timeout failure
	// with unknown outcome. Retry-eligible after re-reading state.
	ErrCodeLedgerUnavailable OpErrorCode = "LEDGER_UNAVAILABLE"

	// ErrCodeTransferConflict indicates the ledger refused a state
	// transition because a concurrent operation won, or the caller no
	// longer holds the item. Retryable after re-read.
	ErrCodeTransferConflict OpErrorCode = "TRANSFER_CONFLICT"

	// ErrCodePersistence indicates the mirror write failed after the
	// ledger confirmed. The ledger holds state the mirror does not;
	// a reconciliation pass must repair it. Never silently dropped.
	ErrCodePersistence OpErrorCode = "PERSISTENCE"

	// ErrCodeDuplicateKey indicates a uniqueness violation on create
	// before any ledger state changed.
	ErrCodeDuplicateKey OpErrorCode = "DUPLICATE_KEY"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.ItemID != "" && e.Reason != "" {
		return fmt.Sprintf("%s: %s (item=%s, ledger: %s)", e.Code, e.Message, e.ItemID, e.Reason)
	}
	if e.ItemID != "" {
		return fmt.Sprintf("%s: %s (item=%s)", e.Code, e.Message, e.ItemID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the OpErrorCode from an error, or "" if err is not an
// OpError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) OpErrorCode {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsValidation reports whether err is a validation or geometry error.
func IsValidation(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeValidation || code == ErrCodeInvalidGeometry
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsConflict reports whether err is a transfer conflict. Callers should
// re-read current state before retrying.
func IsConflict(err error) bool {
	return CodeOf(err) == ErrCodeTransferConflict
}

// IsPersistence reports whether err indicates ledger/mirror skew requiring
// reconciliation.
func IsPersistence(err error) bool {
	return CodeOf(err) == ErrCodePersistence
}

func newValidationError(message string) *OpError {
	return &OpError{Code: ErrCodeValidation, Message: message}
}

func newGeometryError(itemID string, err error) *OpError {
	return &OpError{
		Code:    ErrCodeInvalidGeometry,
		Message: err.Error(),
		ItemID:  itemID,
		Err:     err,
	}
}

func newNotFoundError(itemID string) *OpError {
	return &OpError{Code: ErrCodeNotFound, Message: "item not found", ItemID: itemID}
}

func newPersistenceError(itemID string, err error) *OpError {
	return &OpError{
		Code:    ErrCodePersistence,
		Message: "mirror write failed after ledger confirmation",
		ItemID:  itemID,
		Err:     err,
	}
}

// classifySubmit converts a ledger submit failure into an OpError.
// Rejections map to LEDGER_REJECTED or, for state transitions on existing
// items, TRANSFER_CONFLICT; everything else is LEDGER_UNAVAILABLE.
func classifySubmit(itemID string, err error, conflict bool) *OpError {
	var le *ledger.Error
	if errors.As(err, &le) && le.Kind == ledger.KindRejection {
		if conflict {
			return &OpError{
				Code:    ErrCodeTransferConflict,
				Message: "ledger refused state transition",
				ItemID:  itemID,
				Reason:  le.Reason,
				Err:     err,
			}
		}
		return &OpError{
			Code:    ErrCodeLedgerRejected,
			Message: "ledger rejected operation",
			ItemID:  itemID,
			Reason:  le.Reason,
			Err:     err,
		}
	}
	return &OpError{
		Code:    ErrCodeLedgerUnavailable,
		Message: "ledger unreachable or outcome unknown",
		ItemID:  itemID,
		Err:     err,
	}
}

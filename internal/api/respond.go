package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ledgertrace/custodia/internal/custody"
	"github.com/ledgertrace/custodia/internal/identity"
)

// errorBody is the JSON error envelope. Kind is the stable programmatic
// signal; reason carries the raw ledger text when one exists and is
// diagnostic only.
type errorBody struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps engine and identity errors to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var oe *custody.OpError
	if errors.As(err, &oe) {
		writeJSON(w, statusFor(oe.Code), errorBody{
			Error:  oe.Message,
			Kind:   string(oe.Code),
			Reason: oe.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, identity.ErrMissingField):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: err.Error(),
			Kind:  string(custody.ErrCodeValidation),
		})
	case errors.Is(err, identity.ErrNameTaken):
		writeJSON(w, http.StatusConflict, errorBody{
			Error: err.Error(),
			Kind:  string(custody.ErrCodeDuplicateKey),
		})
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Error: err.Error(),
			Kind:  "UNAUTHORIZED",
		})
	default:
		slog.Error("unclassified error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "internal error",
			Kind:  "INTERNAL",
		})
	}
}

func statusFor(code custody.OpErrorCode) int {
	switch code {
	case custody.ErrCodeValidation, custody.ErrCodeInvalidGeometry:
		return http.StatusBadRequest
	case custody.ErrCodeNotFound:
		return http.StatusNotFound
	case custody.ErrCodeLedgerRejected:
		return http.StatusBadRequest
	case custody.ErrCodeTransferConflict:
		return http.StatusConflict
	case custody.ErrCodeDuplicateKey:
		return http.StatusConflict
	case custody.ErrCodeLedgerUnavailable:
		return http.StatusBadGateway
	case custody.ErrCodePersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error: "invalid JSON body",
			Kind:  string(custody.ErrCodeValidation),
		})
		return false
	}
	return true
}

package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/baharkarakas/transfer-ledger/internal/services"
)

type APIError struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	WriteJSON(w, status, APIError{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteServiceError translates a classified engine error to its status
// code. Anything unclassified is a storage failure and becomes a 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	if e, ok := services.AsError(err); ok {
		WriteError(w, statusFor(e.Code), string(e.Code), e.Message, nil)
		return
	}
	slog.Error("unhandled service error", "err", err)
	WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeForbidden:
		return http.StatusForbidden
	case services.CodeInsufficientFunds, services.CodeInvalidArgument:
		return http.StatusBadRequest
	case services.CodeLockTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

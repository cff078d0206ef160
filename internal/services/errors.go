package services

import (
	"errors"

	"github.com/baharkarakas/transfer-ledger/internal/metrics"
	repo "github.com/baharkarakas/transfer-ledger/internal/repository"
)

type ErrorCode string

const (
	CodeNotFound          ErrorCode = "not_found"
	CodeForbidden         ErrorCode = "forbidden"
	CodeInsufficientFunds ErrorCode = "insufficient_funds"
	CodeInvalidArgument   ErrorCode = "invalid_argument"
	// CodeLockTimeout means a row lock could not be acquired in time.
	// No mutation happened; the caller may retry.
	CodeLockTimeout ErrorCode = "lock_timeout"
)

// Error is the classified failure every engine operation returns. Anything
// that is not an *Error is an unexpected storage failure.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// AsError unwraps err into a classified engine error, if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

var (
	// Absent transfer, wrong party and non-pending status are deliberately
	// indistinguishable here so callers cannot probe transfer existence.
	errCannotAccept = &Error{Code: CodeForbidden, Message: "cannot accept transfer"}
	errCannotReject = &Error{Code: CodeForbidden, Message: "cannot reject transfer"}

	errTransferNotFound  = &Error{Code: CodeNotFound, Message: "transfer not found"}
	errAccessDenied      = &Error{Code: CodeForbidden, Message: "access denied"}
	errUserNotFound      = &Error{Code: CodeNotFound, Message: "user not found"}
	errInsufficientFunds = &Error{Code: CodeInsufficientFunds, Message: "insufficient funds"}
)

// classify maps storage-level failures onto the engine taxonomy and lets
// already-classified errors pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrLockTimeout) {
		metrics.LockTimeouts.Inc()
		return &Error{Code: CodeLockTimeout, Message: "lock wait timed out, retry"}
	}
	return err
}

func failReason(err error) string {
	if e, ok := AsError(err); ok {
		return string(e.Code)
	}
	return "internal"
}

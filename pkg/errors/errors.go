package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrPendingAccount     = New("ACCOUNT_PENDING", http.StatusForbidden, "account awaiting approval")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Consent taxonomy. ErrOutingFull is terminal for the caller's attempt;
	// ErrLockUnavailable is retryable and must never be mistaken for a
	// capacity verdict.
	ErrOutingFull      = New("CAPACITY_EXCEEDED", http.StatusConflict, "outing is full")
	ErrLockUnavailable = New("LOCK_UNAVAILABLE", http.StatusServiceUnavailable, "could not acquire lock, retry later")
	ErrPersistence     = New("PERSISTENCE_ERROR", http.StatusInternalServerError, "write failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Postgres SQLSTATE codes the portal reacts to.
const (
	pqLockNotAvailable = "55P03"
	pqDeadlockDetected = "40P01"
	pqUniqueViolation  = "23505"
)

// FromPQError classifies driver errors: lock timeouts and deadlocks surface
// as retryable concurrency failures, unique violations as conflicts, anything
// else as a persistence failure.
func FromPQError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqLockNotAvailable, pqDeadlockDetected:
			return Wrap(err, ErrLockUnavailable.Code, ErrLockUnavailable.Status, ErrLockUnavailable.Message)
		case pqUniqueViolation:
			return Wrap(err, ErrConflict.Code, ErrConflict.Status, "duplicate record")
		}
	}
	if message == "" {
		message = ErrPersistence.Message
	}
	return Wrap(err, ErrPersistence.Code, ErrPersistence.Status, message)
}

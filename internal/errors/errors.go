package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents an Atelier error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrFileNotFound    ErrorCode = "FILE_NOT_FOUND"   // 404
	ErrAlreadyExists   ErrorCode = "ALREADY_EXISTS"   // 409
	ErrMaxTier         ErrorCode = "MAX_TIER"         // 409
	ErrFileTooLarge    ErrorCode = "FILE_TOO_LARGE"   // 413
	ErrEvolutionLocked ErrorCode = "EVOLUTION_LOCKED" // 422
	ErrRateLimited     ErrorCode = "RATE_LIMITED"     // 429
	ErrCancelled       ErrorCode = "CANCELLED"        // 499
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// AtelierError represents a structured error with code, status, and details.
type AtelierError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AtelierError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AtelierError {
	return &AtelierError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record. kind is the record
// type ("card", "history item", "deck").
func NewNotFound(kind, identifier string) *AtelierError {
	return &AtelierError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *AtelierError {
	return &AtelierError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewAlreadyExists creates a 409 error for an ID collision.
func NewAlreadyExists(kind, id string) *AtelierError {
	return &AtelierError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s already exists: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewMaxTier creates a 409 error when a card cannot advance further.
func NewMaxTier(tier string) *AtelierError {
	return &AtelierError{
		Code:    ErrMaxTier,
		Status:  409,
		Message: fmt.Sprintf("already at maximum tier: %s", tier),
		Details: map[string]any{"tier": tier},
	}
}

// NewEvolutionLocked creates a 422 error when a card has not been used
// enough to evolve.
func NewEvolutionLocked(tier string, usage, required int) *AtelierError {
	return &AtelierError{
		Code:    ErrEvolutionLocked,
		Status:  422,
		Message: fmt.Sprintf("evolution requirements not met: %s needs %d uses (has %d)", tier, required, usage),
		Details: map[string]any{"tier": tier, "usage_count": usage, "required": required},
	}
}

// NewCancelled creates a 499 error for an operation stopped by its context.
func NewCancelled(op string) *AtelierError {
	return &AtelierError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewFileTooLarge creates a 413 error when an import file exceeds the size limit.
func NewFileTooLarge(max, actual int64) *AtelierError {
	return &AtelierError{
		Code:    ErrFileTooLarge,
		Status:  413,
		Message: fmt.Sprintf("file exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewRateLimited creates a 429 error when a client exceeds a request budget.
func NewRateLimited(what string) *AtelierError {
	return &AtelierError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: fmt.Sprintf("too many %s; slow down", what),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The caller-facing message stays generic; the cause is kept in Details
// for logging.
func NewInternal(err error) *AtelierError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &AtelierError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if err, or any error it wraps, is an AtelierError with the given code.
func Is(err error, code ErrorCode) bool {
	var aErr *AtelierError
	if errors.As(err, &aErr) {
		return aErr.Code == code
	}
	return false
}

// As returns the AtelierError in err's chain, if any.
func As(err error) (*AtelierError, bool) {
	var aErr *AtelierError
	ok := errors.As(err, &aErr)
	return aErr, ok
}

package circulation

import (
	"errors"
	"fmt"
)

// DomainError is a business-rule failure with a stable code. Infrastructure
// failures are never wrapped in a DomainError; they propagate as generic
// errors and are logged without leaking detail to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeForbidden       = "FORBIDDEN"
)

func NewNotFoundError(msg string) error {
	return &DomainError{Code: ErrCodeNotFound, Message: msg}
}

func NewInvalidArgumentError(msg string) error {
	return &DomainError{Code: ErrCodeInvalidArgument, Message: msg}
}

func NewConflictError(msg string) error {
	return &DomainError{Code: ErrCodeConflict, Message: msg}
}

func NewForbiddenError(msg string) error {
	return &DomainError{Code: ErrCodeForbidden, Message: msg}
}

func hasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// IsNotFound reports whether err is a NOT_FOUND domain error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT domain error.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsConflict reports whether err is a CONFLICT domain error.
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsForbidden reports whether err is a FORBIDDEN domain error.
func IsForbidden(err error) bool { return hasCode(err, ErrCodeForbidden) }

package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeValidation           = "validation_failed"
	CodeBadRequest           = "bad_request"
	CodeGenerationInProgress = "generation_in_progress"
	CodeRateLimited          = "rate_limited"
	CodeInternal             = "internal_error"
)

// Error is a failure that carries an HTTP status and a machine-readable code.
// Message is safe to show to end users; Err is for logs only.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, CodeForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, CodeNotFound, message, nil)
}

func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, CodeBadRequest, message, err)
}

func Validation(message string, err error) *Error {
	return New(http.StatusUnprocessableEntity, CodeValidation, message, err)
}

func Conflict(code, message string) *Error {
	return New(http.StatusConflict, code, message, nil)
}

func TooManyRequests(message string) *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

func Internal(err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, "Something went wrong. Please try again later.", err)
}

// As extracts an *Error from anywhere in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

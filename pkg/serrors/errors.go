package serrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes. The HTTP layer maps these to status
// codes; services and repositories never return raw store errors upward.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeConflict         = "CONFLICT"
	CodeOptimisticLock   = "OPTIMISTIC_LOCK"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
)

// BaseError carries a stable code plus a human-readable message. LocaleKey is
// optional and used by the presentation layer for translation lookups.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return e.Message
}

// WithTemplateData attaches key/value pairs for message templating.
func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *BaseError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeConflict, CodeOptimisticLock:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *BaseError {
	return NewError(CodeValidation, message, "Errors.Validation")
}

func Validationf(format string, args ...any) *BaseError {
	return Validation(fmt.Sprintf(format, args...))
}

func Conflict(message string) *BaseError {
	return NewError(CodeConflict, message, "Errors.Conflict")
}

func Conflictf(format string, args ...any) *BaseError {
	return Conflict(fmt.Sprintf(format, args...))
}

func OptimisticLock(message string) *BaseError {
	return NewError(CodeOptimisticLock, message, "Errors.OptimisticLock")
}

func NotFound(message string) *BaseError {
	return NewError(CodeNotFound, message, "Errors.NotFound")
}

func Forbidden(message string) *BaseError {
	return NewError(CodeForbidden, message, "Errors.Forbidden")
}

func Unauthorized(message string) *BaseError {
	return NewError(CodeUnauthorized, message, "Errors.Unauthorized")
}

func StoreUnavailable(message string) *BaseError {
	return NewError(CodeStoreUnavailable, message, "Errors.StoreUnavailable")
}

// CodeOf extracts the stable code from err, unwrapping as needed. Returns an
// empty string when err carries no BaseError.
func CodeOf(err error) string {
	var base *BaseError
	if errors.As(err, &base) {
		return base.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

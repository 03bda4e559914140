// Package errors defines the coded errors catgraph reports to users.
//
// Stores, the importer and request validation return *Error values. The CLI
// maps their [Code] to an exit status and the API maps it to an HTTP status
// with [HTTPStatus], so both surfaces agree on what went wrong. Errors
// without a code are internal failures.
//
// Malformed graph input such as self links, links naming unknown categories
// or parents that do not exist is not an error at all. The graph builders
// drop it and count what they dropped.
//
//	if err := errors.ValidateName(name); err != nil {
//		return err // INVALID_NAME
//	}
//	return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "list categories")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error. Codes are stable and appear in API responses.
type Code string

const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidID    Code = "INVALID_ID"
	ErrCodeInvalidName  Code = "INVALID_NAME"
	ErrCodeInvalidPage  Code = "INVALID_PAGE"
	ErrCodeCycle        Code = "CYCLE_DETECTED" // a move would put a category under its own descendant

	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeCategoryNotFound Code = "CATEGORY_NOT_FOUND"
	ErrCodeFileNotFound     Code = "FILE_NOT_FOUND"

	ErrCodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	ErrCodeTimeout          Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error carries a Code, a message fit for users and an optional cause that
// is only shown in logs.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the first *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the first *Error in err's chain, or
// err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// HTTPStatus maps an error to the HTTP status code the API responds with.
// Errors without a code map to 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidID, ErrCodeInvalidName, ErrCodeInvalidPage, ErrCodeCycle:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeCategoryNotFound, ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

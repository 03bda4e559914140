package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"no cause", New(ErrCodeCategoryNotFound, "category %d not found", 7), "CATEGORY_NOT_FOUND: category 7 not found"},
		{"with cause", Wrap(ErrCodeStoreUnavailable, errors.New("database is locked"), "link categories"),
			"STORE_UNAVAILABLE: link categories: database is locked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrCodeTimeout, context.DeadlineExceeded, "analysis")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see the cause")
	}
	if errors.Unwrap(err) != context.DeadlineExceeded {
		t.Errorf("Unwrap() = %v", errors.Unwrap(err))
	}
}

func TestCodeLookup(t *testing.T) {
	moved := New(ErrCodeCycle, "category 1 cannot move under 2")
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"coded", moved, ErrCodeCycle, "category 1 cannot move under 2"},
		{"wrapped by fmt", fmt.Errorf("move: %w", moved), ErrCodeCycle, "category 1 cannot move under 2"},
		{"outermost code wins", Wrap(ErrCodeInvalidInput, moved, "bad request"), ErrCodeInvalidInput, "bad request"},
		{"plain", errors.New("disk full"), "", "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false", tt.code)
			}
			if Is(tt.err, ErrCodeInternal) {
				t.Error("Is(INTERNAL_ERROR) = true")
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if GetCode(nil) != "" || Is(nil, "") {
		t.Error("nil error should carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid name", New(ErrCodeInvalidName, "x"), http.StatusBadRequest},
		{"cycle", New(ErrCodeCycle, "x"), http.StatusBadRequest},
		{"not found", New(ErrCodeCategoryNotFound, "x"), http.StatusNotFound},
		{"wrapped not found", Wrap(ErrCodeNotFound, errors.New("inner"), "x"), http.StatusNotFound},
		{"store", New(ErrCodeStoreUnavailable, "x"), http.StatusServiceUnavailable},
		{"timeout", New(ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

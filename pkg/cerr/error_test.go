package cerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ichen27/openclaw-dashboard/pkg/storage"
)

func TestHTTPCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{InvalidArgument, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{AlreadyExists, http.StatusConflict},
		{Aborted, http.StatusConflict},
		{Internal, http.StatusInternalServerError},
		{DataLoss, http.StatusInternalServerError},
		{Unauthenticated, http.StatusUnauthorized},
		{Canceled, 499},
		{Code(999), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPCode(); got != tt.want {
			t.Errorf("%s.HTTPCode() = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestNewError_StackOnlyForErrorLevel(t *testing.T) {
	if err := NewError(Internal, "boom", nil); err.Stack == "" {
		t.Error("Internal error should capture a stack trace")
	}
	if err := NewError(NotFound, "missing", nil); err.Stack != "" {
		t.Error("NotFound should not capture a stack trace")
	}
	if err := NewError(InvalidArgument, "bad", nil); err.Stack != "" {
		t.Error("InvalidArgument should not capture a stack trace")
	}
}

func TestErrorMessage(t *testing.T) {
	plain := NewError(NotFound, "task not found", nil)
	if plain.Error() != "[not_found] task not found" {
		t.Errorf("Error() = %q", plain.Error())
	}

	wrapped := NewError(Internal, "server error", errors.New("disk full"))
	if wrapped.Error() != "[internal] server error: disk full" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestIsCode(t *testing.T) {
	err := NewError(Aborted, "conflict", nil)

	if !IsCode(err, Aborted) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(err, NotFound) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(errors.New("plain"), Aborted) {
		t.Error("IsCode matched a non-classified error")
	}
	// Wrapped classified errors still match.
	if !IsCode(fmt.Errorf("context: %w", err), Aborted) {
		t.Error("IsCode should unwrap")
	}
}

func TestWrapStorageReadError(t *testing.T) {
	notFound := WrapStorageReadError("task", fmt.Errorf("x: %w", storage.ErrNotFound))
	if !IsCode(notFound, NotFound) {
		t.Errorf("expected NotFound, got %v", notFound)
	}

	other := WrapStorageReadError("task", errors.New("io error"))
	if !IsCode(other, Internal) {
		t.Errorf("expected Internal, got %v", other)
	}
}

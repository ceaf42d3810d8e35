package errors

import (
	"fmt"
	"testing"
)

func TestAtelierError_Error(t *testing.T) {
	err := &AtelierError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "card not found",
	}

	expected := "NOT_FOUND: card not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("raw is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "raw is required" {
		t.Errorf("Message = %q, want %q", err.Message, "raw is required")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("card", "01HX")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Message != "card not found: 01HX" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["kind"] != "card" || err.Details["identifier"] != "01HX" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestNewFileNotFound(t *testing.T) {
	err := NewFileNotFound("/tmp/missing.jsonl")

	if err.Code != ErrFileNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["path"] != "/tmp/missing.jsonl" {
		t.Errorf("Details[path] = %v", err.Details["path"])
	}
}

func TestNewAlreadyExists(t *testing.T) {
	err := NewAlreadyExists("card", "abc")

	if err.Code != ErrAlreadyExists {
		t.Errorf("Code = %q, want %q", err.Code, ErrAlreadyExists)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
}

func TestNewMaxTier(t *testing.T) {
	err := NewMaxTier("Legendary")

	if err.Code != ErrMaxTier {
		t.Errorf("Code = %q, want %q", err.Code, ErrMaxTier)
	}
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Details["tier"] != "Legendary" {
		t.Errorf("Details[tier] = %v", err.Details["tier"])
	}
}

func TestNewEvolutionLocked(t *testing.T) {
	err := NewEvolutionLocked("Common", 3, 10)

	if err.Code != ErrEvolutionLocked {
		t.Errorf("Code = %q, want %q", err.Code, ErrEvolutionLocked)
	}
	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	if err.Details["usage_count"] != 3 {
		t.Errorf("Details[usage_count] = %v, want 3", err.Details["usage_count"])
	}
	if err.Details["required"] != 10 {
		t.Errorf("Details[required] = %v, want 10", err.Details["required"])
	}
}

func TestNewFileTooLarge(t *testing.T) {
	err := NewFileTooLarge(10*1024*1024, 15*1024*1024)

	if err.Code != ErrFileTooLarge {
		t.Errorf("Code = %q, want %q", err.Code, ErrFileTooLarge)
	}
	if err.Status != 413 {
		t.Errorf("Status = %d, want 413", err.Status)
	}
	if err.Details["max_bytes"] != int64(10*1024*1024) {
		t.Errorf("Details[max_bytes] = %v, want %v", err.Details["max_bytes"], int64(10*1024*1024))
	}
	if err.Details["actual_bytes"] != int64(15*1024*1024) {
		t.Errorf("Details[actual_bytes] = %v, want %v", err.Details["actual_bytes"], int64(15*1024*1024))
	}
}

func TestNewCancelled(t *testing.T) {
	err := NewCancelled("export")

	if err.Code != ErrCancelled {
		t.Errorf("Code = %q, want %q", err.Code, ErrCancelled)
	}
	if err.Status != 499 {
		t.Errorf("Status = %d, want 499", err.Status)
	}
	if err.Message != "export cancelled" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInternal(t *testing.T) {
	t.Run("with error", func(t *testing.T) {
		err := NewInternal(fmt.Errorf("database connection failed"))

		if err.Code != ErrInternal {
			t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
		}
		if err.Status != 500 {
			t.Errorf("Status = %d, want 500", err.Status)
		}
		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details["internal_error"] != "database connection failed" {
			t.Errorf("Details[internal_error] = %q, want %q", err.Details["internal_error"], "database connection failed")
		}
	})

	t.Run("with nil", func(t *testing.T) {
		err := NewInternal(nil)

		if err.Message != "an internal error occurred" {
			t.Errorf("Message = %q, want %q", err.Message, "an internal error occurred")
		}
		if err.Details == nil {
			t.Error("Details should not be nil")
		}
	})
}

func TestIs(t *testing.T) {
	t.Run("matching code", func(t *testing.T) {
		if !Is(NewNotFound("card", "x"), ErrNotFound) {
			t.Error("Is() = false, want true")
		}
	})

	t.Run("non-matching code", func(t *testing.T) {
		if Is(NewNotFound("card", "x"), ErrMaxTier) {
			t.Error("Is() = true, want false")
		}
	})

	t.Run("non-AtelierError", func(t *testing.T) {
		if Is(fmt.Errorf("plain error"), ErrNotFound) {
			t.Error("Is() = true, want false for non-AtelierError")
		}
	})

	t.Run("wrapped AtelierError", func(t *testing.T) {
		wrapped := fmt.Errorf("cards[0]: %w", NewNotFound("card", "x"))
		if !Is(wrapped, ErrNotFound) {
			t.Error("Is() = false, want true for wrapped AtelierError")
		}
		if Is(wrapped, ErrMaxTier) {
			t.Error("Is() = true, want false for wrong code on wrapped AtelierError")
		}
	})
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewMaxTier("Legendary"))
	aErr, ok := As(wrapped)
	if !ok || aErr.Code != ErrMaxTier {
		t.Errorf("As() = %v, %v", aErr, ok)
	}
	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Error("As() = true for plain error")
	}
}

package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatchingByCode(t *testing.T) {
	err := NewError(CodeStaleVersion, "courseimport.reconcile", "stored=5 uploaded=4", nil)
	wrapped := fmt.Errorf("upload math101: %w", err)

	if !errors.Is(wrapped, ErrStaleVersion) {
		t.Fatalf("errors.Is(stale): want true")
	}
	if errors.Is(wrapped, ErrNotOwner) {
		t.Fatalf("errors.Is(not_owner): want false")
	}
	if got := CodeOf(wrapped); got != CodeStaleVersion {
		t.Fatalf("CodeOf: want=%q got=%q", CodeStaleVersion, got)
	}
	if !IsCode(wrapped, CodeStaleVersion) {
		t.Fatalf("IsCode: want true")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeInternal, "op", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
	if got := err.Error(); got != "op: boom (internal)" {
		t.Fatalf("Error(): got=%q", got)
	}
}

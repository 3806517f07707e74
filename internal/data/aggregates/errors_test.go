package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"gorm.io/gorm"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PgUniqueViolation(t *testing.T) {
	err := MapError("op", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Canceled(t *testing.T) {
	err := MapError("op", context.Canceled)
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughImportError(t *testing.T) {
	in := fmt.Errorf("decide: %w", domainagg.NewError(domainagg.CodeNotOwner, "reconcile", "owner mismatch", errors.New("boom")))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough of coded error")
	}
	if !errors.Is(out, domainagg.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner to survive")
	}
}

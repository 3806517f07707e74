package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
)

func TestCASGuardAdvanceVersion(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "cas@example.com")
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "cas101", 3)

	guard := NewCASGuard(db)
	if err := guard.AdvanceVersion(dbc, "course", c.ID, 3, 4, map[string]any{"filename": "cas101_v4.zip"}); err != nil {
		t.Fatalf("first advance: %v", err)
	}
	var got types.Course
	if err := tx.First(&got, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Version != 4 || got.Filename != "cas101_v4.zip" {
		t.Fatalf("course: version=%d filename=%q", got.Version, got.Filename)
	}

	err := guard.AdvanceVersion(dbc, "course", c.ID, 3, 5, nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("stale advance: want conflict, got %v", err)
	}

	if err := guard.AdvanceVersion(dbc, "course", c.ID, 4, 4, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("non-increasing version: want validation, got %v", err)
	}
	if err := guard.AdvanceVersion(dbc, "", uuid.New(), 1, 2, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing table: want validation, got %v", err)
	}
}

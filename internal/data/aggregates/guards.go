package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"gorm.io/gorm"
)

// CASGuard advances versioned rows (courses) only from the version the
// caller read.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

// AdvanceVersion moves the row at table/id from version from to version to
// and applies updates in the same statement. to must be greater than from.
// A row that no longer sits at from yields a conflict error.
func (g CASGuard) AdvanceVersion(dbc dbctx.Context, table string, id uuid.UUID, from, to int64, updates map[string]any) error {
	if dbc.Tx == nil && g.db == nil {
		return ValidationError("missing db transaction context")
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return ValidationError("table and id are required")
	}
	if to <= from {
		return ValidationError(fmt.Sprintf("version must increase: %d -> %d", from, to))
	}

	cols := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		cols[k] = v
	}
	cols["version"] = to

	res := dbc.DB(g.db).Table(table).
		Where("id = ? AND version = ?", id, from).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ConflictError(fmt.Sprintf("%s %s is no longer at version %d", table, id, from))
	}
	return nil
}

package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, shortname string, version int64) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:        uuid.New(),
		UserID:    userID,
		Shortname: shortname,
		Version:   version,
		Title:     types.NewLangMap("en", shortname),
		Filename:  shortname + ".zip",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, order int) *types.Section {
	tb.Helper()
	s := &types.Section{
		ID:       uuid.New(),
		CourseID: courseID,
		Order:    order,
		Title:    types.NewLangMap("en", fmt.Sprintf("Section %d", order)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, order int, typ, digest string) *types.Activity {
	tb.Helper()
	a := &types.Activity{
		ID:        uuid.New(),
		SectionID: sectionID,
		Order:     order,
		Type:      typ,
		Digest:    digest,
		Title:     types.NewLangMap("en", digest),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return a
}

func PtrString(s string) *string { return &s }
func PtrInt64(i int64) *int64    { return &i }
func PtrInt(i int) *int          { return &i }

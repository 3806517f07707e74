package courses

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/testutil"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
)

func TestCourseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCourseRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "courserepo@example.com")
	c := &types.Course{
		UserID:    u.ID,
		Shortname: "math101",
		Version:   20240101,
		Title:     types.NewLangMap("en", "Math", "fr", "Maths"),
		IsDraft:   true,
	}
	if _, err := repo.Create(dbc, []*types.Course{c}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByShortname(dbc, "math101")
	if err != nil || got == nil {
		t.Fatalf("GetByShortname: got=%v err=%v", got, err)
	}
	if got.ID != c.ID || got.TitleFor("fr") != "Maths" || got.TitleFor("de") != "Math" {
		t.Fatalf("GetByShortname: unexpected row %+v", got)
	}
	if missing, err := repo.GetByShortname(dbc, "nope"); err != nil || missing != nil {
		t.Fatalf("GetByShortname(missing): got=%v err=%v", missing, err)
	}
	if rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}

	got.Version = 20240202
	if err := repo.Save(dbc, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{c.ID}); err != nil || len(rows) != 1 || rows[0].Version != 20240202 {
		t.Fatalf("after Save GetByIDs: err=%v rows=%v", err, rows)
	}

	s := testutil.SeedSection(t, ctx, tx, c.ID, 1)
	testutil.SeedActivity(t, ctx, tx, s.ID, 1, "page", "d-course-1")
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if n := testutil.Count(t, tx, &types.Activity{}, "digest = ?", "d-course-1"); n != 0 {
		t.Fatalf("activities after course delete: %d", n)
	}
	if n := testutil.Count(t, tx, &types.Section{}, "course_id = ?", c.ID); n != 0 {
		t.Fatalf("sections after course delete: %d", n)
	}
}

func TestSectionRepoCascadesActivities(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSectionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "sectionrepo@example.com")
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "sec101", 1)

	created, err := repo.Create(dbc, []*types.Section{
		{CourseID: c.ID, Order: 2, Title: types.NewLangMap("en", "Two")},
		{CourseID: c.ID, Order: 1, Title: types.NewLangMap("en", "One")},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := repo.ListByCourseID(dbc, c.ID)
	if err != nil || len(list) != 2 || list[0].Order != 1 || list[1].Order != 2 {
		t.Fatalf("ListByCourseID: err=%v list=%v", err, list)
	}
	ids, err := repo.ListIDsByCourseID(dbc, c.ID)
	if err != nil || len(ids) != 2 || ids[0] != created[1].ID {
		t.Fatalf("ListIDsByCourseID: err=%v ids=%v", err, ids)
	}

	testutil.SeedActivity(t, ctx, tx, created[0].ID, 1, "page", "d-sec-1")
	testutil.SeedActivity(t, ctx, tx, created[1].ID, 1, "page", "d-sec-2")
	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	if n := testutil.Count(t, tx, &types.Activity{}); n != 1 {
		t.Fatalf("activities after delete: want=1 got=%d", n)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil || len(rows) != 0 {
		t.Fatalf("GetByIDs after delete: err=%v len=%d", err, len(rows))
	}
}

func TestActivityRepoUpsertByDigest(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewActivityRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "activityrepo@example.com")
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "act101", 1)
	s1 := testutil.SeedSection(t, ctx, tx, c.ID, 1)
	s2 := testutil.SeedSection(t, ctx, tx, c.ID, 2)

	a := &types.Activity{
		SectionID: s1.ID,
		Order:     1,
		Type:      "page",
		Digest:    "abc",
		Title:     types.NewLangMap("en", "Intro"),
		Content:   testutil.PtrString(`{"en":"intro.html"}`),
	}
	created, err := repo.Upsert(dbc, a)
	if err != nil || !created {
		t.Fatalf("Upsert(new): created=%v err=%v", created, err)
	}
	firstID := a.ID

	moved := &types.Activity{
		SectionID: s2.ID,
		Order:     3,
		Type:      "page",
		Digest:    "abc",
		Title:     types.NewLangMap("en", "Intro v2"),
	}
	created, err = repo.Upsert(dbc, moved)
	if err != nil || created {
		t.Fatalf("Upsert(existing): created=%v err=%v", created, err)
	}
	if moved.ID != firstID {
		t.Fatalf("Upsert should reuse id: want=%s got=%s", firstID, moved.ID)
	}

	got, err := repo.GetByDigest(dbc, "abc")
	if err != nil || got == nil {
		t.Fatalf("GetByDigest: got=%v err=%v", got, err)
	}
	if got.SectionID != s2.ID || got.Order != 3 || got.TitleFor("en") != "Intro v2" || got.Content != nil {
		t.Fatalf("GetByDigest: unexpected row %+v", got)
	}
	if n := testutil.Count(t, tx, &types.Activity{}, "digest = ?", "abc"); n != 1 {
		t.Fatalf("rows for digest: want=1 got=%d", n)
	}

	if rows, err := repo.ListBySectionIDs(dbc, []uuid.UUID{s1.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("ListBySectionIDs(s1): err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetByDigests(dbc, []string{"abc", "zzz"}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByDigests: err=%v len=%d", err, len(rows))
	}
	if err := repo.FullDeleteBySectionIDs(dbc, []uuid.UUID{s2.ID}); err != nil {
		t.Fatalf("FullDeleteBySectionIDs: %v", err)
	}
	if missing, err := repo.GetByDigest(dbc, "abc"); err != nil || missing != nil {
		t.Fatalf("GetByDigest after delete: got=%v err=%v", missing, err)
	}
}

func TestMediaRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewMediaRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "mediarepo@example.com")
	c := testutil.SeedCourse(t, ctx, tx, u.ID, "media101", 1)

	if _, err := repo.Create(dbc, []*types.Media{
		{CourseID: c.ID, Filename: "b.mp4", Digest: "m2", Filesize: testutil.PtrInt64(2048)},
		{CourseID: c.ID, Filename: "a.mp4", Digest: "m1", MediaLength: testutil.PtrInt(61)},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rows, err := repo.ListByCourseID(dbc, c.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByCourseID: err=%v len=%d", err, len(rows))
	}
	if rows[0].Filename != "a.mp4" || rows[0].MediaLength == nil || *rows[0].MediaLength != 61 || rows[0].Filesize != nil {
		t.Fatalf("ListByCourseID: unexpected first row %+v", rows[0])
	}
	if err := repo.FullDeleteByCourseIDs(dbc, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("FullDeleteByCourseIDs: %v", err)
	}
	if n := testutil.Count(t, tx, &types.Media{}); n != 0 {
		t.Fatalf("media after delete: %d", n)
	}
}

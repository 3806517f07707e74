package courseimport

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dataagg "github.com/yungbote/neurobridge-coursepack/internal/data/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/course"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/manifest"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/quizdedup"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

// QuizResolver turns a quiz payload into its canonical, id-folded form.
type QuizResolver interface {
	Resolve(dbc dbctx.Context, ownerID uuid.UUID, payload string) (*quizdedup.Result, error)
}

// Upload identifies who sent an archive and under which file name.
type Upload struct {
	UserID   uuid.UUID
	Filename string
}

type WriterDeps struct {
	Log      *logger.Logger
	Courses  repos.CourseRepo
	Sections repos.SectionRepo
	Content  repos.ActivityRepo
	Media    repos.MediaRepo
	Quizzes  QuizResolver
	CAS      dataagg.CASGuard
	Now      func() time.Time
}

type Writer struct {
	deps WriterDeps
}

func NewWriter(deps WriterDeps) *Writer {
	deps.Log = deps.Log.With("component", "Writer")
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Writer{deps: deps}
}

// Apply mutates stored state to match doc. It must run inside the
// transaction that produced dec. Quiz payloads in doc are replaced with
// their canonical content as a side effect.
func (w *Writer) Apply(dbc dbctx.Context, dec *Decision, doc *manifest.Document, up Upload, msgs *Messages) (*types.Course, error) {
	m := doc.Manifest

	c, err := w.upsertCourse(dbc, dec, m, up)
	if err != nil {
		return nil, err
	}
	if len(m.Sections) == 0 && len(m.Baseline) == 0 {
		if dec.IsNew {
			if err := w.deps.Courses.FullDeleteByIDs(dbc, []uuid.UUID{c.ID}); err != nil {
				return nil, fmt.Errorf("remove empty course %q: %w", m.Shortname, err)
			}
		}
		return nil, aggregates.NewError(aggregates.CodeEmptyCourse, "courseimport.apply",
			fmt.Sprintf("course %q has no sections", m.Shortname), nil)
	}

	if len(m.Baseline) > 0 {
		section := &types.Section{CourseID: c.ID, Order: course.BaselineOrder, Title: course.BaselineTitle()}
		if err := w.writeSection(dbc, c, dec, doc, section, m.Baseline, true, msgs); err != nil {
			return nil, err
		}
	}
	for _, pos := range m.SkippedSections {
		msgs.Warn("Section %d does not contain any activity.", pos)
	}
	for _, s := range m.Sections {
		section := &types.Section{CourseID: c.ID, Order: s.Order, Title: s.Title}
		if err := w.writeSection(dbc, c, dec, doc, section, s.Activities, false, msgs); err != nil {
			return nil, err
		}
	}

	if err := w.replaceMedia(dbc, c.ID, m.Media); err != nil {
		return nil, err
	}
	if err := w.retireSections(dbc, dec.OldSectionIDs, msgs); err != nil {
		return nil, err
	}
	return c, nil
}

func (w *Writer) upsertCourse(dbc dbctx.Context, dec *Decision, m *manifest.Manifest, up Upload) (*types.Course, error) {
	now := w.deps.Now()
	if dec.IsNew {
		c := &types.Course{
			ID:            uuid.New(),
			UserID:        up.UserID,
			Shortname:     m.Shortname,
			Version:       m.VersionID,
			Title:         m.Title,
			Description:   m.Description,
			Filename:      up.Filename,
			IsDraft:       true,
			LastUpdatedAt: now,
		}
		if _, err := w.deps.Courses.Create(dbc, []*types.Course{c}); err != nil {
			return nil, fmt.Errorf("create course %q: %w", m.Shortname, err)
		}
		return c, nil
	}

	c := dec.Existing
	err := w.deps.CAS.AdvanceVersion(dbc, c.TableName(), c.ID, c.Version, m.VersionID, map[string]any{
		"title":          m.Title,
		"description":    m.Description,
		"filename":       up.Filename,
		"user_id":        up.UserID,
		"lastupdated_at": now,
		"updated_at":     now,
	})
	if err != nil {
		return nil, fmt.Errorf("update course %q: %w", m.Shortname, err)
	}
	c.Version = m.VersionID
	c.Title = m.Title
	c.Description = m.Description
	c.Filename = up.Filename
	c.UserID = up.UserID
	c.LastUpdatedAt = now
	c.UpdatedAt = now

	if err := w.deps.Media.FullDeleteByCourseIDs(dbc, []uuid.UUID{c.ID}); err != nil {
		return nil, fmt.Errorf("clear media of %q: %w", m.Shortname, err)
	}
	return c, nil
}

func (w *Writer) writeSection(dbc dbctx.Context, c *types.Course, dec *Decision, doc *manifest.Document, section *types.Section, acts []*manifest.Activity, baseline bool, msgs *Messages) error {
	if _, err := w.deps.Sections.Create(dbc, []*types.Section{section}); err != nil {
		return fmt.Errorf("create section %d of %q: %w", section.Order, c.Shortname, err)
	}
	for _, a := range acts {
		content := a.Content
		if a.IsQuiz() {
			payload := ""
			if a.Content != nil {
				payload = *a.Content
			}
			res, err := w.deps.Quizzes.Resolve(dbc, c.UserID, payload)
			if err != nil {
				return fmt.Errorf("activity %s: %w", a.Digest, err)
			}
			if err := doc.SetActivityContent(a, res.Content); err != nil {
				return fmt.Errorf("activity %s: %w", a.Digest, err)
			}
			content = a.Content
		}

		row := &types.Activity{
			SectionID:   section.ID,
			Order:       a.Order,
			Type:        a.Type,
			Digest:      a.Digest,
			Baseline:    baseline,
			Title:       a.Title,
			Image:       a.Image,
			Content:     content,
			Description: a.Description,
		}
		created, err := w.deps.Content.Upsert(dbc, row)
		if err != nil {
			return fmt.Errorf("store activity %s: %w", a.Digest, err)
		}
		if dec.IsNew {
			continue
		}
		if created {
			title, _, _ := a.Title.Resolve("en")
			msgs.Warn("Activity %q(%s) did not exist previously.", title, a.Digest)
		}
	}
	return nil
}

func (w *Writer) replaceMedia(dbc dbctx.Context, courseID uuid.UUID, files []manifest.MediaFile) error {
	if len(files) == 0 {
		return nil
	}
	rows := make([]*types.Media, 0, len(files))
	for _, f := range files {
		rows = append(rows, &types.Media{
			CourseID:    courseID,
			Filename:    f.Filename,
			DownloadURL: f.DownloadURL,
			Digest:      f.Digest,
			Filesize:    f.Filesize,
			MediaLength: f.Length,
		})
	}
	if _, err := w.deps.Media.Create(dbc, rows); err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

// retireSections deletes the sections that existed before this upload.
// Activities still attached to them are the ones the new manifest dropped.
func (w *Writer) retireSections(dbc dbctx.Context, sectionIDs []uuid.UUID, msgs *Messages) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	retired, err := w.deps.Sections.GetByIDs(dbc, sectionIDs)
	if err != nil {
		return fmt.Errorf("load retired sections: %w", err)
	}
	for _, s := range retired {
		title, _, _ := s.Title.Resolve("en")
		msgs.Info("Section %d %q from the previous version was retired.", s.Order, title)
	}
	leftover, err := w.deps.Content.ListBySectionIDs(dbc, sectionIDs)
	if err != nil {
		return fmt.Errorf("list retired activities: %w", err)
	}
	for _, a := range leftover {
		msgs.Info("Activity %q(%s) is no longer in the course.", a.TitleFor("en"), a.Digest)
	}
	if err := w.deps.Sections.FullDeleteByIDs(dbc, sectionIDs); err != nil {
		return fmt.Errorf("delete retired sections: %w", err)
	}
	w.deps.Log.Debug("sections retired", "count", len(sectionIDs), "activities_removed", len(leftover))
	return nil
}

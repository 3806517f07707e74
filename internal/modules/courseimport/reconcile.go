package courseimport

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-coursepack/internal/data/repos"
	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-coursepack/internal/modules/courseimport/manifest"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

// Decision is the reconciler's verdict for one upload. Existing is nil for
// a new course.
type Decision struct {
	IsNew         bool
	Existing      *types.Course
	OldSectionIDs []uuid.UUID
	OldFilename   string
}

type Reconciler struct {
	log      *logger.Logger
	courses  repos.CourseRepo
	sections repos.SectionRepo
}

func NewReconciler(baseLog *logger.Logger, courses repos.CourseRepo, sections repos.SectionRepo) *Reconciler {
	return &Reconciler{
		log:      baseLog.With("component", "Reconciler"),
		courses:  courses,
		sections: sections,
	}
}

// Decide compares the manifest against the stored course with the same
// shortname. It performs no writes.
func (r *Reconciler) Decide(dbc dbctx.Context, m *manifest.Manifest, uploaderID uuid.UUID) (*Decision, error) {
	existing, err := r.courses.GetByShortname(dbc, m.Shortname)
	if err != nil {
		return nil, fmt.Errorf("lookup course %q: %w", m.Shortname, err)
	}
	if existing == nil {
		r.log.Debug("new course", "shortname", m.Shortname, "version", m.VersionID)
		return &Decision{IsNew: true}, nil
	}

	if existing.UserID != uploaderID {
		return nil, aggregates.NewError(aggregates.CodeNotOwner, "courseimport.decide",
			fmt.Sprintf("course %q belongs to another user", m.Shortname), nil)
	}
	if m.VersionID <= existing.Version {
		return nil, aggregates.NewError(aggregates.CodeStaleVersion, "courseimport.decide",
			fmt.Sprintf("course %q is already at version %d (uploaded %d)", m.Shortname, existing.Version, m.VersionID), nil)
	}

	oldSections, err := r.sections.ListIDsByCourseID(dbc, existing.ID)
	if err != nil {
		return nil, fmt.Errorf("list sections of %q: %w", m.Shortname, err)
	}
	r.log.Debug("course update",
		"shortname", m.Shortname,
		"from_version", existing.Version,
		"to_version", m.VersionID,
		"old_sections", len(oldSections),
	)
	return &Decision{
		Existing:      existing,
		OldSectionIDs: oldSections,
		OldFilename:   existing.Filename,
	}, nil
}

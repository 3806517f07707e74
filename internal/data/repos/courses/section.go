package courses

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type SectionRepo interface {
	Create(dbc dbctx.Context, sections []*types.Section) ([]*types.Section, error)
	ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Section, error)
	ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
	GetByIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.Section, error)
	FullDeleteByIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	repoLog := baseLog.With("repo", "SectionRepo")
	return &sectionRepo{db: db, log: repoLog}
}

func (r *sectionRepo) Create(dbc dbctx.Context, sections []*types.Section) ([]*types.Section, error) {
	if len(sections) == 0 {
		return []*types.Section{}, nil
	}
	for _, s := range sections {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Section, error) {
	var results []*types.Section
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sectionRepo) ListIDsByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := dbc.DB(r.db).
		Model(&types.Section{}).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sectionRepo) GetByIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.Section, error) {
	var results []*types.Section
	if len(sectionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", sectionIDs).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FullDeleteByIDs removes the sections and every activity still attached
// to them.
func (r *sectionRepo) FullDeleteByIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	transaction := dbc.DB(r.db)
	if err := transaction.Where("section_id IN ?", sectionIDs).Delete(&types.Activity{}).Error; err != nil {
		return err
	}
	return transaction.Where("id IN ?", sectionIDs).Delete(&types.Section{}).Error
}

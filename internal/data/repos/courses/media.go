package courses

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type MediaRepo interface {
	Create(dbc dbctx.Context, media []*types.Media) ([]*types.Media, error)
	ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Media, error)
	FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type mediaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	repoLog := baseLog.With("repo", "MediaRepo")
	return &mediaRepo{db: db, log: repoLog}
}

func (r *mediaRepo) Create(dbc dbctx.Context, media []*types.Media) ([]*types.Media, error) {
	if len(media) == 0 {
		return []*types.Media{}, nil
	}
	for _, m := range media {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

func (r *mediaRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Media, error) {
	var results []*types.Media
	if err := dbc.DB(r.db).
		Where("course_id = ?", courseID).
		Order("filename ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mediaRepo) FullDeleteByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("course_id IN ?", courseIDs).
		Delete(&types.Media{}).Error
}

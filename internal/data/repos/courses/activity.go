package courses

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

// ActivityRepo is the content store for activities. Digest is a global
// key: Upsert reuses the row of an existing digest whatever course or
// section it currently belongs to.
type ActivityRepo interface {
	GetByDigest(dbc dbctx.Context, digest string) (*types.Activity, error)
	GetByDigests(dbc dbctx.Context, digests []string) ([]*types.Activity, error)
	Upsert(dbc dbctx.Context, activity *types.Activity) (created bool, err error)
	ListBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.Activity, error)
	FullDeleteBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) error
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	repoLog := baseLog.With("repo", "ActivityRepo")
	return &activityRepo{db: db, log: repoLog}
}

// GetByDigest returns nil, nil for an unknown digest.
func (r *activityRepo) GetByDigest(dbc dbctx.Context, digest string) (*types.Activity, error) {
	var a types.Activity
	err := dbc.DB(r.db).Where("digest = ?", digest).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *activityRepo) GetByDigests(dbc dbctx.Context, digests []string) ([]*types.Activity, error) {
	var results []*types.Activity
	if len(digests) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("digest IN ?", digests).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) Upsert(dbc dbctx.Context, activity *types.Activity) (bool, error) {
	if activity == nil {
		return false, nil
	}
	existing, err := r.GetByDigest(dbc, activity.Digest)
	if err != nil {
		return false, err
	}
	transaction := dbc.DB(r.db)
	if existing == nil {
		if activity.ID == uuid.Nil {
			activity.ID = uuid.New()
		}
		if err := transaction.Create(activity).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	activity.ID = existing.ID
	activity.CreatedAt = existing.CreatedAt
	if err := transaction.Save(activity).Error; err != nil {
		return false, err
	}
	return false, nil
}

func (r *activityRepo) ListBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) ([]*types.Activity, error) {
	var results []*types.Activity
	if len(sectionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("section_id IN ?", sectionIDs).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *activityRepo) FullDeleteBySectionIDs(dbc dbctx.Context, sectionIDs []uuid.UUID) error {
	if len(sectionIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("section_id IN ?", sectionIDs).
		Delete(&types.Activity{}).Error
}

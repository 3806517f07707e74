package courses

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Course, error)
	GetByShortname(dbc dbctx.Context, shortname string) (*types.Course, error)
	Save(dbc dbctx.Context, course *types.Course) error
	FullDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(dbc dbctx.Context, courses []*types.Course) ([]*types.Course, error) {
	if len(courses) == 0 {
		return []*types.Course{}, nil
	}
	for _, c := range courses {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Course, error) {
	var results []*types.Course
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id IN ?", userIDs).
		Order("shortname ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByShortname returns nil, nil when no course carries shortname.
func (r *courseRepo) GetByShortname(dbc dbctx.Context, shortname string) (*types.Course, error) {
	var c types.Course
	err := dbc.DB(r.db).
		Where("shortname = ?", shortname).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) Save(dbc dbctx.Context, course *types.Course) error {
	if course == nil {
		return nil
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	return dbc.DB(r.db).Save(course).Error
}

// FullDeleteByIDs removes the courses together with their sections,
// activities and media.
func (r *courseRepo) FullDeleteByIDs(dbc dbctx.Context, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	transaction := dbc.DB(r.db)
	sectionIDs := transaction.Model(&types.Section{}).Select("id").Where("course_id IN ?", courseIDs)
	if err := transaction.Where("section_id IN (?)", sectionIDs).Delete(&types.Activity{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("course_id IN ?", courseIDs).Delete(&types.Section{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("course_id IN ?", courseIDs).Delete(&types.Media{}).Error; err != nil {
		return err
	}
	return transaction.Where("id IN ?", courseIDs).Delete(&types.Course{}).Error
}

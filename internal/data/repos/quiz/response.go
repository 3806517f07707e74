package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type ResponseRepo interface {
	Create(dbc dbctx.Context, responses []*types.Response) ([]*types.Response, error)
	CreateProps(dbc dbctx.Context, props []*types.ResponseProps) ([]*types.ResponseProps, error)
	GetByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Response, error)
}

type responseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	repoLog := baseLog.With("repo", "ResponseRepo")
	return &responseRepo{db: db, log: repoLog}
}

func (r *responseRepo) Create(dbc dbctx.Context, responses []*types.Response) ([]*types.Response, error) {
	if len(responses) == 0 {
		return []*types.Response{}, nil
	}
	for _, resp := range responses {
		if resp.ID == uuid.Nil {
			resp.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) CreateProps(dbc dbctx.Context, props []*types.ResponseProps) ([]*types.ResponseProps, error) {
	if len(props) == 0 {
		return []*types.ResponseProps{}, nil
	}
	for _, p := range props {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&props).Error; err != nil {
		return nil, err
	}
	return props, nil
}

func (r *responseRepo) GetByQuestionIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Response, error) {
	var results []*types.Response
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("question_id IN ?", questionIDs).
		Order("sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

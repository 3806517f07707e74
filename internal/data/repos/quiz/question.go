package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	CreateProps(dbc dbctx.Context, props []*types.QuestionProps) ([]*types.QuestionProps, error)
	LinkToQuiz(dbc dbctx.Context, links []*types.QuizQuestion) ([]*types.QuizQuestion, error)
	GetByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) CreateProps(dbc dbctx.Context, props []*types.QuestionProps) ([]*types.QuestionProps, error) {
	if len(props) == 0 {
		return []*types.QuestionProps{}, nil
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

func (r *questionRepo) LinkToQuiz(dbc dbctx.Context, links []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
	if len(links) == 0 {
		return []*types.QuizQuestion{}, nil
	}
	for _, l := range links {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, questionIDs []uuid.UUID) ([]*types.Question, error) {
	var results []*types.Question
	if len(questionIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

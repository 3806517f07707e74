package quiz

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-coursepack/internal/domain"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error)
	GetByIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.Quiz, error)
	FindByProp(dbc dbctx.Context, name, value string) (*types.Quiz, error)
	CreateProps(dbc dbctx.Context, props []*types.QuizProps) ([]*types.QuizProps, error)
	UpdateContent(dbc dbctx.Context, quizID uuid.UUID, content string) error
	LoadTree(dbc dbctx.Context, quizID uuid.UUID) (*types.QuizTree, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error) {
	if len(quizzes) == 0 {
		return []*types.Quiz{}, nil
	}
	for _, q := range quizzes {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) GetByIDs(dbc dbctx.Context, quizIDs []uuid.UUID) ([]*types.Quiz, error) {
	var results []*types.Quiz
	if len(quizIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", quizIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindByProp returns the oldest quiz carrying the property, or nil, nil.
func (r *quizRepo) FindByProp(dbc dbctx.Context, name, value string) (*types.Quiz, error) {
	transaction := dbc.DB(r.db)
	quizIDs := transaction.Model(&types.QuizProps{}).
		Select("quiz_id").
		Where("name = ? AND value = ?", name, value)

	var q types.Quiz
	err := transaction.
		Where("id IN (?)", quizIDs).
		Order("created_at ASC").
		Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepo) CreateProps(dbc dbctx.Context, props []*types.QuizProps) ([]*types.QuizProps, error) {
	if len(props) == 0 {
		return []*types.QuizProps{}, nil
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

func (r *quizRepo) UpdateContent(dbc dbctx.Context, quizID uuid.UUID, content string) error {
	return dbc.DB(r.db).
		Model(&types.Quiz{}).
		Where("id = ?", quizID).
		Update("content", datatypes.JSON(content)).Error
}

// LoadTree reads the quiz with its props and its questions in join order,
// each with props and responses ordered by response order.
func (r *quizRepo) LoadTree(dbc dbctx.Context, quizID uuid.UUID) (*types.QuizTree, error) {
	transaction := dbc.DB(r.db)

	var q types.Quiz
	if err := transaction.Where("id = ?", quizID).Take(&q).Error; err != nil {
		return nil, err
	}
	tree := &types.QuizTree{Quiz: &q}
	if err := transaction.Where("quiz_id = ?", quizID).Find(&tree.Props).Error; err != nil {
		return nil, err
	}

	var links []*types.QuizQuestion
	if err := transaction.Where("quiz_id = ?", quizID).Order("sort_order ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return tree, nil
	}
	questionIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		questionIDs = append(questionIDs, l.QuestionID)
	}

	var questions []*types.Question
	if err := transaction.Where("id IN ?", questionIDs).Find(&questions).Error; err != nil {
		return nil, err
	}
	var qProps []*types.QuestionProps
	if err := transaction.Where("question_id IN ?", questionIDs).Find(&qProps).Error; err != nil {
		return nil, err
	}
	var responses []*types.Response
	if err := transaction.Where("question_id IN ?", questionIDs).Order("sort_order ASC").Find(&responses).Error; err != nil {
		return nil, err
	}
	responseIDs := make([]uuid.UUID, 0, len(responses))
	for _, resp := range responses {
		responseIDs = append(responseIDs, resp.ID)
	}
	var rProps []*types.ResponseProps
	if len(responseIDs) > 0 {
		if err := transaction.Where("response_id IN ?", responseIDs).Find(&rProps).Error; err != nil {
			return nil, err
		}
	}

	questionByID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, qu := range questions {
		questionByID[qu.ID] = qu
	}
	qPropsByID := make(map[uuid.UUID][]*types.QuestionProps)
	for _, p := range qProps {
		qPropsByID[p.QuestionID] = append(qPropsByID[p.QuestionID], p)
	}
	rPropsByID := make(map[uuid.UUID][]*types.ResponseProps)
	for _, p := range rProps {
		rPropsByID[p.ResponseID] = append(rPropsByID[p.ResponseID], p)
	}
	responsesByQuestion := make(map[uuid.UUID][]*types.Response)
	for _, resp := range responses {
		responsesByQuestion[resp.QuestionID] = append(responsesByQuestion[resp.QuestionID], resp)
	}

	for _, l := range links {
		qu, ok := questionByID[l.QuestionID]
		if !ok {
			continue
		}
		tq := &types.QuizTreeQuestion{Link: l, Question: qu, Props: qPropsByID[qu.ID]}
		rs := responsesByQuestion[qu.ID]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Order < rs[j].Order })
		for _, resp := range rs {
			tq.Responses = append(tq.Responses, &types.QuizTreeResponse{Response: resp, Props: rPropsByID[resp.ID]})
		}
		tree.Questions = append(tree.Questions, tq)
	}
	return tree, nil
}

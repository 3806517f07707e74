package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PropDigest is the QuizProps name used as the content-hash identity.
const PropDigest = "digest"

const (
	QuestionMultichoice = "multichoice"
	QuestionShortAnswer = "shortanswer"
	QuestionMatching    = "matching"
	QuestionNumerical   = "numerical"
	QuestionMultiselect = "multiselect"
	QuestionDescription = "description"
	QuestionEssay       = "essay"
)

// Quiz is frozen once created: later uploads with the same digest reuse
// it and its canonical Content.
type Quiz struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Title       string         `gorm:"type:text;column:title" json:"title"`
	Description string         `gorm:"type:text;column:description" json:"description"`
	Draft       bool           `gorm:"not null;default:false;column:draft" json:"draft"`
	Deleted     bool           `gorm:"not null;default:false;column:deleted" json:"deleted"`
	Content     datatypes.JSON `gorm:"type:text;column:content" json:"content"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Quiz) TableName() string { return "quiz" }

type QuizProps struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index;column:quiz_id" json:"quiz_id"`
	Name   string    `gorm:"not null;index:idx_quiz_props_name_value,priority:1;column:name" json:"name"`
	Value  string    `gorm:"type:text;index:idx_quiz_props_name_value,priority:2;column:value" json:"value"`
}

func (QuizProps) TableName() string { return "quiz_props" }

type Question struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index;column:owner_id" json:"owner_id"`
	Type    string    `gorm:"not null;column:type" json:"type"`
	Title   string    `gorm:"type:text;column:title" json:"title"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

type QuestionProps struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	Value      string    `gorm:"type:text;column:value" json:"value"`
}

func (QuestionProps) TableName() string { return "question_props" }

// QuizQuestion is the ordered join between a quiz and its questions.
type QuizQuestion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID     uuid.UUID `gorm:"type:uuid;not null;index;column:quiz_id" json:"quiz_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	Order      int       `gorm:"not null;column:sort_order" json:"order"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

type Response struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;column:owner_id" json:"owner_id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index;column:question_id" json:"question_id"`
	Title      string    `gorm:"type:text;column:title" json:"title"`
	Score      float64   `gorm:"type:decimal(10,2);not null;default:0;column:score" json:"score"`
	Order      int       `gorm:"not null;column:sort_order" json:"order"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Response) TableName() string { return "response" }

type ResponseProps struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ResponseID uuid.UUID `gorm:"type:uuid;not null;index;column:response_id" json:"response_id"`
	Name       string    `gorm:"not null;column:name" json:"name"`
	Value      string    `gorm:"type:text;column:value" json:"value"`
}

func (ResponseProps) TableName() string { return "response_props" }

// Tree is a fully loaded quiz with its ordered questions.
type Tree struct {
	Quiz      *Quiz
	Props     []*QuizProps
	Questions []*TreeQuestion
}

type TreeQuestion struct {
	Link      *QuizQuestion
	Question  *Question
	Props     []*QuestionProps
	Responses []*TreeResponse
}

type TreeResponse struct {
	Response *Response
	Props    []*ResponseProps
}

package domain

import (
	"github.com/yungbote/neurobridge-coursepack/internal/domain/course"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/quiz"
	"github.com/yungbote/neurobridge-coursepack/internal/domain/user"
)

type User = user.User

type LangMap = course.LangMap
type LangEntry = course.LangEntry

type Course = course.Course
type Section = course.Section
type Activity = course.Activity
type Media = course.Media

type Quiz = quiz.Quiz
type QuizProps = quiz.QuizProps
type Question = quiz.Question
type QuestionProps = quiz.QuestionProps
type QuizQuestion = quiz.QuizQuestion
type Response = quiz.Response
type ResponseProps = quiz.ResponseProps
type QuizTree = quiz.Tree
type QuizTreeQuestion = quiz.TreeQuestion
type QuizTreeResponse = quiz.TreeResponse

var NewLangMap = course.NewLangMap

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Section{},
		&Activity{},
		&Media{},
		&Quiz{},
		&QuizProps{},
		&Question{},
		&QuestionProps{},
		&QuizQuestion{},
		&Response{},
		&ResponseProps{},
	}
}

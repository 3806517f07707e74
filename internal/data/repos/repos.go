package repos

import (
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/courses"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/quiz"
	"github.com/yungbote/neurobridge-coursepack/internal/data/repos/user"
	"github.com/yungbote/neurobridge-coursepack/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CourseRepo = courses.CourseRepo
type SectionRepo = courses.SectionRepo
type ActivityRepo = courses.ActivityRepo
type MediaRepo = courses.MediaRepo

type QuizRepo = quiz.QuizRepo
type QuestionRepo = quiz.QuestionRepo
type ResponseRepo = quiz.ResponseRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return courses.NewCourseRepo(db, baseLog)
}
func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return courses.NewSectionRepo(db, baseLog)
}
func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return courses.NewActivityRepo(db, baseLog)
}
func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	return courses.NewMediaRepo(db, baseLog)
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return quiz.NewQuizRepo(db, baseLog)
}
func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return quiz.NewQuestionRepo(db, baseLog)
}
func NewResponseRepo(db *gorm.DB, baseLog *logger.Logger) ResponseRepo {
	return quiz.NewResponseRepo(db, baseLog)
}

// Set bundles every repository the import pipeline needs.
type Set struct {
	User     UserRepo
	Course   CourseRepo
	Section  SectionRepo
	Activity ActivityRepo
	Media    MediaRepo
	Quiz     QuizRepo
	Question QuestionRepo
	Response ResponseRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		User:     NewUserRepo(db, baseLog),
		Course:   NewCourseRepo(db, baseLog),
		Section:  NewSectionRepo(db, baseLog),
		Activity: NewActivityRepo(db, baseLog),
		Media:    NewMediaRepo(db, baseLog),
		Quiz:     NewQuizRepo(db, baseLog),
		Question: NewQuestionRepo(db, baseLog),
		Response: NewResponseRepo(db, baseLog),
	}
}

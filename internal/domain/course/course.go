package course

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Shortname   string    `gorm:"not null;uniqueIndex;column:shortname" json:"shortname"`
	Version     int64     `gorm:"not null;column:version" json:"version"`
	Title       LangMap   `gorm:"type:text;column:title" json:"title"`
	Description LangMap   `gorm:"type:text;column:description" json:"description"`
	Filename    string    `gorm:"column:filename" json:"filename"`
	IsDraft     bool      `gorm:"not null;default:false;column:is_draft" json:"is_draft"`
	IsArchived  bool      `gorm:"not null;default:false;column:is_archived" json:"is_archived"`

	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
	LastUpdatedAt time.Time `gorm:"not null;column:lastupdated_at" json:"lastupdated_at"`
}

func (Course) TableName() string { return "course" }

func (c *Course) TitleFor(lang string) string {
	t, _, _ := c.Title.Resolve(lang)
	return t
}

type Section struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_section_course_order,priority:1;column:course_id" json:"course_id"`
	Order    int       `gorm:"not null;index:idx_section_course_order,priority:2;column:sort_order" json:"order"`
	Title    LangMap   `gorm:"type:text;column:title" json:"title"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Section) TableName() string { return "section" }

// BaselineOrder is the reserved order of the synthetic baseline section.
const BaselineOrder = 0

func BaselineTitle() LangMap { return NewLangMap("en", "Baseline") }

func (s *Section) IsBaseline() bool { return s.Order == BaselineOrder }

func (s *Section) TitleFor(lang string) string {
	t, _, _ := s.Title.Resolve(lang)
	return t
}

type Media struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index;column:course_id" json:"course_id"`
	Filename    string    `gorm:"not null;column:filename" json:"filename"`
	DownloadURL string    `gorm:"column:download_url" json:"download_url"`
	Digest      string    `gorm:"index;column:digest" json:"digest"`
	Filesize    *int64    `gorm:"column:filesize" json:"filesize,omitempty"`
	MediaLength *int      `gorm:"column:media_length" json:"media_length,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Media) TableName() string { return "media" }

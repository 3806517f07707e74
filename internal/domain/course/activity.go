package course

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityTypePage     = "page"
	ActivityTypeQuiz     = "quiz"
	ActivityTypeMedia    = "media"
	ActivityTypeFeedback = "feedback"
	ActivityTypeResource = "resource"
	ActivityTypeURL      = "url"
)

// Activity rows are keyed globally by Digest: an upload carrying a digest
// that already exists moves and updates that row instead of inserting.
type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID   uuid.UUID `gorm:"type:uuid;not null;index;column:section_id" json:"section_id"`
	Order       int       `gorm:"not null;column:sort_order" json:"order"`
	Type        string    `gorm:"not null;column:type" json:"type"`
	Digest      string    `gorm:"not null;uniqueIndex;column:digest" json:"digest"`
	Baseline    bool      `gorm:"not null;default:false;column:baseline" json:"baseline"`
	Title       LangMap   `gorm:"type:text;column:title" json:"title"`
	Image       *string   `gorm:"column:image" json:"image,omitempty"`
	Content     *string   `gorm:"type:text;column:content" json:"content,omitempty"`
	Description LangMap   `gorm:"type:text;column:description" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) TitleFor(lang string) string {
	t, _, _ := a.Title.Resolve(lang)
	return t
}

func (a *Activity) IsQuiz() bool { return a.Type == ActivityTypeQuiz }

// ContentText returns the stored content or "" when none was recorded.
func (a *Activity) ContentText() string {
	if a.Content == nil {
		return ""
	}
	return *a.Content
}

package user

import (
	"time"

	"github.com/google/uuid"
)

// User owns uploaded courses and the quiz trees created from them.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	FirstName string    `gorm:"not null;default:'';column:first_name" json:"first_name"`
	LastName  string    `gorm:"not null;default:'';column:last_name" json:"last_name"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

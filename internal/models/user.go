package models

import (
	"time"

	"github.com/google/uuid"
)

const MaxUsernameLength = 50

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	IsAdmin   bool      `gorm:"not null;default:false" json:"isAdmin"`
	IsBanned  bool      `gorm:"not null;default:false;index" json:"isBanned"`
	IsDeleted bool      `gorm:"not null;default:false" json:"isDeleted"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// filled by list queries
	ReportCount int `gorm:"->;-:migration" json:"-"`
}

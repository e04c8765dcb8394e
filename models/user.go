// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Username    string    `json:"username" gorm:"uniqueIndex;not null;size:50"`
	Email       *string   `json:"email,omitempty" gorm:"uniqueIndex;size:100"`
	Password    string    `json:"-" gorm:"not null"`
	DisplayName string    `json:"display_name" gorm:"size:100"`
	TargetExam  string    `json:"target_exam,omitempty" gorm:"size:50"`
	IsGuest     bool      `json:"is_guest" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastLogin   time.Time `json:"last_login"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Handle returns the name shown in notifications and listings.
func (u *User) Handle() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

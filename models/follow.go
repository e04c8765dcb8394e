// models/follow.go - Follow Graph
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is a directed edge in the friend graph: FollowerID follows
// FolloweeID. Followed users are the only valid challenge-invite targets.
type Follow struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	FollowerID string    `json:"follower_id" gorm:"size:36;not null;uniqueIndex:idx_follows_pair;index"`
	FolloweeID string    `json:"followee_id" gorm:"size:36;not null;uniqueIndex:idx_follows_pair;index"`
	Follower   *User     `json:"follower,omitempty" gorm:"foreignKey:FollowerID"`
	Followee   *User     `json:"followee,omitempty" gorm:"foreignKey:FolloweeID"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.FollowerID == f.FolloweeID {
		return errors.New("users cannot follow themselves")
	}
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

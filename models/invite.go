// models/invite.go - Challenge Invite Data Model
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite is the per-friend record of a challenge offer. Response is nil while
// pending, true once accepted, false once rejected. A set response is
// write-once; Accepted and Rejected are terminal states.
type Invite struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	ChallengeID   string     `json:"challenge_id" gorm:"size:36;not null;index"`
	Challenge     *Challenge `json:"challenge,omitempty" gorm:"foreignKey:ChallengeID"`
	InvitedUserID string     `json:"invited_user_id" gorm:"size:36;not null;index"`
	InvitedUser   *User      `json:"invited_user,omitempty" gorm:"foreignKey:InvitedUserID"`
	Response      *bool      `json:"response"`
	CreatedAt     time.Time  `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Invite) TableName() string {
	return "invites"
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Pending reports whether the invite is still awaiting a response.
func (i *Invite) Pending() bool {
	return i.Response == nil
}

// Accepted reports whether the invite was accepted.
func (i *Invite) Accepted() bool {
	return i.Response != nil && *i.Response
}

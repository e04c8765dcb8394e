// models/notification.go - Notification Fan-out Data Model
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification type tags
type NotificationType string

const (
	NotificationChallengeInvite   NotificationType = "challenge_invite"
	NotificationChallengeAccepted NotificationType = "challenge_accepted"
	NotificationChallengeRejected NotificationType = "challenge_rejected"
)

// Notification is created once per fan-out event and never mutated afterwards
// except for the seen flag (read-receipt concern). Approved is an opaque
// tri-state carried for downstream consumers; this subsystem never
// interprets it.
type Notification struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	SenderID    string           `json:"sender_id" gorm:"size:36;not null;index"`
	Recipients  datatypes.JSON   `json:"recipients" gorm:"not null"`
	Message     string           `json:"message" gorm:"not null;type:text"`
	Type        NotificationType `json:"type" gorm:"not null;size:30;index"`
	ChallengeID string           `json:"challenge_id,omitempty" gorm:"size:36;index"`
	InviteID    string           `json:"invite_id,omitempty" gorm:"size:36"`
	Seen        bool             `json:"seen" gorm:"default:false"`
	Approved    *bool            `json:"approved"`
	CreatedAt   time.Time        `json:"created_at" gorm:"not null"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

// SetRecipients stores the recipient id list as a JSON column value.
func (n *Notification) SetRecipients(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	n.Recipients = datatypes.JSON(raw)
	return nil
}

// RecipientIDs decodes the recipient id list.
func (n *Notification) RecipientIDs() []string {
	var ids []string
	if err := json.Unmarshal(n.Recipients, &ids); err != nil {
		return nil
	}
	return ids
}

// HasRecipient reports whether the user is among the recipients.
func (n *Notification) HasRecipient(userID string) bool {
	for _, id := range n.RecipientIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

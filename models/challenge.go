// models/challenge.go - Peer Challenge Data Model
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Challenge status constants (written by the test-taking engine; read-only here)
type ChallengeStatus string

const (
	ChallengeStatusPending   ChallengeStatus = "pending"
	ChallengeStatusActive    ChallengeStatus = "active"
	ChallengeStatusCompleted ChallengeStatus = "completed"
)

// Difficulty filter constants
type Difficulty string

const (
	DifficultyAll    Difficulty = "All"
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// LiveStatus is the derived joinability status, recomputed on every read.
// Never persisted.
type LiveStatus string

const (
	StatusLive    LiveStatus = "Live"
	StatusExpired LiveStatus = "Expired"
)

// ExpiryGraceMinutes is the window beyond the quiz duration in which
// invited friends can still join and complete the challenge.
const ExpiryGraceMinutes = 20

// Challenge represents a timed peer quiz offered to a bounded set of friends.
// A challenge is written once at creation; only the test-taking engine may
// later flip Status to completed.
type Challenge struct {
	ID                  string          `json:"id" gorm:"primaryKey;size:36"`
	CreatorID           string          `json:"creator_id" gorm:"size:36;not null;index"`
	Creator             *User           `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Name                string          `json:"name" gorm:"not null;size:150"`
	Subject             string          `json:"subject" gorm:"not null;size:100"`
	Lesson              string          `json:"lesson" gorm:"not null;size:100"`
	Difficulty          Difficulty      `json:"difficulty" gorm:"not null;default:'All';size:20"`
	QuestionCount       int             `json:"question_count" gorm:"not null"`
	DurationMinutes     int             `json:"duration_minutes" gorm:"not null"`
	ExamFilter          string          `json:"exam_filter,omitempty" gorm:"size:50"`
	Status              ChallengeStatus `json:"status" gorm:"not null;default:'pending';index"`
	ExpiryOffsetMinutes int             `json:"expiry_offset_minutes" gorm:"not null"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null"`
	Invites             []Invite        `json:"invites,omitempty" gorm:"foreignKey:ChallengeID"`
}

func (Challenge) TableName() string {
	return "challenges"
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// ExpiresAt returns the instant the challenge stops being joinable.
func (c *Challenge) ExpiresAt() time.Time {
	return c.CreatedAt.Add(time.Duration(c.ExpiryOffsetMinutes) * time.Minute)
}

// StatusAt computes the derived Live/Expired status at the given instant.
// This is the single source of truth for joinability: every read surface
// (invite list, active panel, lobby gate) must go through it rather than
// repeating the arithmetic.
func (c *Challenge) StatusAt(now time.Time) LiveStatus {
	if now.Before(c.ExpiresAt()) {
		return StatusLive
	}
	return StatusExpired
}

// RemainingAt returns the time left until expiry, zero once expired.
func (c *Challenge) RemainingAt(now time.Time) time.Duration {
	remaining := c.ExpiresAt().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

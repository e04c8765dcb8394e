// store/store.go - Record Store Boundary
//
// The challenge workflow talks to persistence through these interfaces only.
// Single-record operations are assumed atomic; there are no cross-record
// transactions anywhere in the workflow.
package store

import (
	"context"
	"errors"

	"prepclash/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write lost to an existing record or an
	// already-set write-once field.
	ErrConflict = errors.New("record conflict")
	// ErrUnavailable indicates a transient store failure (connectivity,
	// cancellation). Callers may degrade or retry; it is not a logical error.
	ErrUnavailable = errors.New("store unavailable")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type FollowStore interface {
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followeeID string) error
	// Following returns the ids of users the given user follows.
	Following(ctx context.Context, followerID string) ([]string, error)
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
}

type ChallengeStore interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	Get(ctx context.Context, id string) (*models.Challenge, error)
}

// InviteFilter selects invites by field predicates. Zero values mean "any".
type InviteFilter struct {
	InvitedUserID string
	ChallengeID   string
	// Accepted filters on a specific response value when non-nil.
	Accepted *bool
	// PendingOnly keeps invites whose response is still unset.
	PendingOnly bool
}

type InviteStore interface {
	Create(ctx context.Context, invite *models.Invite) error
	Get(ctx context.Context, id string) (*models.Invite, error)
	List(ctx context.Context, filter InviteFilter) ([]models.Invite, error)
	// SetResponse records the response on a still-pending invite and returns
	// ErrConflict if a response was already set. The response field is
	// write-once.
	SetResponse(ctx context.Context, id string, accepted bool) (*models.Invite, error)
}

type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error)
	MarkSeen(ctx context.Context, id string) error
}

// Store bundles the per-collection stores for wiring.
type Store struct {
	Users         UserStore
	Follows       FollowStore
	Challenges    ChallengeStore
	Invites       InviteStore
	Notifications NotificationStore
}

// store/memory.go - In-memory store implementations for tests and local development
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"prepclash/models"

	"github.com/google/uuid"
)

// NewMemoryStore returns a Store backed by in-process maps. GORM hooks do not
// run here, so ids are assigned on create when empty.
func NewMemoryStore() *Store {
	return &Store{
		Users:         &memUserStore{users: make(map[string]models.User)},
		Follows:       &memFollowStore{follows: make(map[string]models.Follow)},
		Challenges:    &memChallengeStore{challenges: make(map[string]models.Challenge)},
		Invites:       &memInviteStore{invites: make(map[string]models.Invite)},
		Notifications: &memNotificationStore{notifications: make(map[string]models.Notification)},
	}
}

type memUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func (s *memUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return ErrConflict
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) GetByIDs(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *memUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return ErrNotFound
	}
	s.users[user.ID] = *user
	return nil
}

type memFollowStore struct {
	mu      sync.RWMutex
	follows map[string]models.Follow
}

func (s *memFollowStore) Create(_ context.Context, follow *models.Follow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.follows {
		if f.FollowerID == follow.FollowerID && f.FolloweeID == follow.FolloweeID {
			return ErrConflict
		}
	}
	if follow.ID == "" {
		follow.ID = uuid.New().String()
	}
	s.follows[follow.ID] = *follow
	return nil
}

func (s *memFollowStore) Delete(_ context.Context, followerID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.follows {
		if f.FollowerID == followerID && f.FolloweeID == followeeID {
			delete(s.follows, id)
			return nil
		}
	}
	return ErrNotFound
}

func (s *memFollowStore) Following(_ context.Context, followerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var edges []models.Follow
	for _, f := range s.follows {
		if f.FollowerID == followerID {
			edges = append(edges, f)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].CreatedAt.Before(edges[j].CreatedAt) })
	ids := make([]string, 0, len(edges))
	for _, f := range edges {
		ids = append(ids, f.FolloweeID)
	}
	return ids, nil
}

func (s *memFollowStore) Exists(_ context.Context, followerID, followeeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FolloweeID == followeeID {
			return true, nil
		}
	}
	return false, nil
}

type memChallengeStore struct {
	mu         sync.RWMutex
	challenges map[string]models.Challenge
}

func (s *memChallengeStore) Create(_ context.Context, challenge *models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if challenge.ID == "" {
		challenge.ID = uuid.New().String()
	}
	s.challenges[challenge.ID] = *challenge
	return nil
}

func (s *memChallengeStore) Get(_ context.Context, id string) (*models.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &challenge, nil
}

type memInviteStore struct {
	mu      sync.RWMutex
	invites map[string]models.Invite
}

func (s *memInviteStore) Create(_ context.Context, invite *models.Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if invite.ID == "" {
		invite.ID = uuid.New().String()
	}
	s.invites[invite.ID] = *invite
	return nil
}

func (s *memInviteStore) Get(_ context.Context, id string) (*models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invite, ok := s.invites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &invite, nil
}

func (s *memInviteStore) List(_ context.Context, filter InviteFilter) ([]models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var invites []models.Invite
	for _, inv := range s.invites {
		if filter.InvitedUserID != "" && inv.InvitedUserID != filter.InvitedUserID {
			continue
		}
		if filter.ChallengeID != "" && inv.ChallengeID != filter.ChallengeID {
			continue
		}
		if filter.Accepted != nil && (inv.Response == nil || *inv.Response != *filter.Accepted) {
			continue
		}
		if filter.PendingOnly && inv.Response != nil {
			continue
		}
		invites = append(invites, inv)
	}
	sort.Slice(invites, func(i, j int) bool { return invites[i].CreatedAt.After(invites[j].CreatedAt) })
	return invites, nil
}

func (s *memInviteStore) SetResponse(_ context.Context, id string, accepted bool) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.invites[id]
	if !ok {
		return nil, ErrNotFound
	}
	if invite.Response != nil {
		return nil, ErrConflict
	}
	response := accepted
	invite.Response = &response
	invite.UpdatedAt = time.Now()
	s.invites[id] = invite
	return &invite, nil
}

type memNotificationStore struct {
	mu            sync.RWMutex
	notifications map[string]models.Notification
}

func (s *memNotificationStore) Create(_ context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	s.notifications[notification.ID] = *notification
	return nil
}

func (s *memNotificationStore) Get(_ context.Context, id string) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	notification, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &notification, nil
}

func (s *memNotificationStore) ListForRecipient(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notifications []models.Notification
	for _, n := range s.notifications {
		if n.HasRecipient(userID) {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *memNotificationStore) MarkSeen(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notification, ok := s.notifications[id]
	if !ok {
		return ErrNotFound
	}
	notification.Seen = true
	s.notifications[id] = notification
	return nil
}

// services/friend_service.go - Friend Graph Reader
package services

import (
	"context"
	"fmt"
	"time"

	"prepclash/models"
	"prepclash/store"
)

type FriendService struct {
	users   store.UserStore
	follows store.FollowStore
	Now     func() time.Time
}

func NewFriendService(s *store.Store) *FriendService {
	return &FriendService{
		users:   s.Users,
		follows: s.Follows,
		Now:     time.Now,
	}
}

// Following resolves the users the given user follows, the invite-target
// candidate list.
func (s *FriendService) Following(ctx context.Context, userID string) ([]models.User, error) {
	ids, err := s.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.GetByIDs(ctx, ids)
}

// Follow adds a directed edge from follower to followee.
func (s *FriendService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, followeeID); err != nil {
		return err
	}
	return s.follows.Create(ctx, &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  s.Now(),
	})
}

// Unfollow removes the edge; store.ErrNotFound when it does not exist.
func (s *FriendService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	return s.follows.Delete(ctx, followerID, followeeID)
}

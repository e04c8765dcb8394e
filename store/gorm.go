// store/gorm.go - GORM-backed store implementations (PostgreSQL)
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prepclash/models"

	"gorm.io/gorm"
)

// NewGormStore wires every collection store to the given database handle.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:         &gormUserStore{db: db},
		Follows:       &gormFollowStore{db: db},
		Challenges:    &gormChallengeStore{db: db},
		Invites:       &gormInviteStore{db: db},
		Notifications: &gormNotificationStore{db: db},
	}
}

// wrapErr maps GORM errors onto the store error taxonomy. Anything that is
// not a logical lookup/uniqueness failure is treated as transient.
func wrapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

type gormUserStore struct {
	db *gorm.DB
}

func (s *gormUserStore) Create(ctx context.Context, user *models.User) error {
	return wrapErr(s.db.WithContext(ctx).Create(user).Error)
}

func (s *gormUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *gormUserStore) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapErr(err)
	}
	return users, nil
}

func (s *gormUserStore) Update(ctx context.Context, user *models.User) error {
	return wrapErr(s.db.WithContext(ctx).Save(user).Error)
}

type gormFollowStore struct {
	db *gorm.DB
}

func (s *gormFollowStore) Create(ctx context.Context, follow *models.Follow) error {
	return wrapErr(s.db.WithContext(ctx).Create(follow).Error)
}

func (s *gormFollowStore) Delete(ctx context.Context, followerID, followeeID string) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormFollowStore) Following(ctx context.Context, followerID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", followerID).
		Order("created_at ASC").
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

func (s *gormFollowStore) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err)
	}
	return count > 0, nil
}

type gormChallengeStore struct {
	db *gorm.DB
}

func (s *gormChallengeStore) Create(ctx context.Context, challenge *models.Challenge) error {
	return wrapErr(s.db.WithContext(ctx).Create(challenge).Error)
}

func (s *gormChallengeStore) Get(ctx context.Context, id string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.WithContext(ctx).First(&challenge, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &challenge, nil
}

type gormInviteStore struct {
	db *gorm.DB
}

func (s *gormInviteStore) Create(ctx context.Context, invite *models.Invite) error {
	return wrapErr(s.db.WithContext(ctx).Create(invite).Error)
}

func (s *gormInviteStore) Get(ctx context.Context, id string) (*models.Invite, error) {
	var invite models.Invite
	if err := s.db.WithContext(ctx).First(&invite, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &invite, nil
}

func (s *gormInviteStore) List(ctx context.Context, filter InviteFilter) ([]models.Invite, error) {
	query := s.db.WithContext(ctx).Model(&models.Invite{})
	if filter.InvitedUserID != "" {
		query = query.Where("invited_user_id = ?", filter.InvitedUserID)
	}
	if filter.ChallengeID != "" {
		query = query.Where("challenge_id = ?", filter.ChallengeID)
	}
	if filter.Accepted != nil {
		query = query.Where("response = ?", *filter.Accepted)
	}
	if filter.PendingOnly {
		query = query.Where("response IS NULL")
	}

	var invites []models.Invite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, wrapErr(err)
	}
	return invites, nil
}

func (s *gormInviteStore) SetResponse(ctx context.Context, id string, accepted bool) (*models.Invite, error) {
	// Guarded update: only a still-pending invite may take a response, so a
	// concurrent double-respond loses cleanly instead of flipping the value.
	res := s.db.WithContext(ctx).Model(&models.Invite{}).
		Where("id = ? AND response IS NULL", id).
		Updates(map[string]interface{}{
			"response":   accepted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish missing from already-answered.
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.Get(ctx, id)
}

type gormNotificationStore struct {
	db *gorm.DB
}

func (s *gormNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	return wrapErr(s.db.WithContext(ctx).Create(notification).Error)
}

func (s *gormNotificationStore) Get(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &notification, nil
}

func (s *gormNotificationStore) ListForRecipient(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipients::jsonb @> ?", fmt.Sprintf(`["%s"]`, userID)).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return notifications, nil
}

func (s *gormNotificationStore) MarkSeen(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Update("seen", true)
	if res.Error != nil {
		return wrapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// services/notification_service.go - Notification read surface
package services

import (
	"context"
	"fmt"

	"prepclash/models"
	"prepclash/store"
)

type NotificationService struct {
	notifications store.NotificationStore
}

func NewNotificationService(s *store.Store) *NotificationService {
	return &NotificationService{notifications: s.Notifications}
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.notifications.ListForRecipient(ctx, userID)
}

// MarkSeen flips the read-receipt flag. Only a recipient may mark a
// notification seen.
func (s *NotificationService) MarkSeen(ctx context.Context, id, userID string) error {
	notification, err := s.notifications.Get(ctx, id)
	if err != nil {
		return err
	}
	if !notification.HasRecipient(userID) {
		return fmt.Errorf("%w: not a recipient of this notification", ErrForbidden)
	}
	return s.notifications.MarkSeen(ctx, id)
}

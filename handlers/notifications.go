// handlers/notifications.go - Notification read surface
package handlers

import (
	"prepclash/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications returns the caller's notifications, newest first.
// GET /api/notifications
func GetNotifications(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	notifications, err := notificationService.ListForUser(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkNotificationSeen flips the read receipt on one notification.
// POST /api/notifications/:id/seen
func MarkNotificationSeen(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	if err := notificationService.MarkSeen(c.Context(), c.Params("id"), userID); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// handlers/handlers.go - Handler wiring and shared helpers
package handlers

import (
	"errors"

	"prepclash/services"
	"prepclash/store"

	"github.com/gofiber/fiber/v2"
)

var (
	challengeService    *services.ChallengeService
	friendService       *services.FriendService
	notificationService *services.NotificationService
	userStore           store.UserStore
)

// InitHandlers wires the handlers to the record store. Must be called before
// any route is served.
func InitHandlers(s *store.Store) {
	challengeService = services.NewChallengeService(s)
	friendService = services.NewFriendService(s)
	notificationService = services.NewNotificationService(s)
	userStore = s.Users

	challengeService.SetPublisher(hub.Publish)
}

// errorResponse maps workflow errors onto HTTP status codes in one place.
func errorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fail(c, 400, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return fail(c, 403, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fail(c, 404, "Not found")
	case errors.Is(err, store.ErrConflict):
		return fail(c, 409, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		// Transient store trouble: the page can retry, nothing is broken.
		return fail(c, 503, "Could not load data. Please retry.")
	default:
		return fail(c, 500, "Internal server error")
	}
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// handlers/friends.go - Follow graph endpoints
package handlers

import (
	"prepclash/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFriends returns the users the caller follows, the invite-target
// candidate list for new challenges.
// GET /api/friends
func GetFriends(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	friends, err := friendService.Following(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"friends": friends,
		"count":   len(friends),
	})
}

// FollowUser adds the target user to the caller's follow list.
// POST /api/friends/:id/follow
func FollowUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	if err := friendService.Follow(c.Context(), userID, c.Params("id")); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"success": true})
}

// UnfollowUser removes the target user from the caller's follow list.
// DELETE /api/friends/:id/follow
func UnfollowUser(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	if err := friendService.Unfollow(c.Context(), userID, c.Params("id")); err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

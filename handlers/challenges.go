// handlers/challenges.go - Challenge creation and read surfaces
package handlers

import (
	"time"

	"prepclash/middleware"
	"prepclash/services"

	"github.com/gofiber/fiber/v2"
)

// CreateChallenge validates the configuration, persists the challenge and
// fans out invites.
// POST /api/challenges
func CreateChallenge(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	var config services.ChallengeConfig
	if err := c.BodyParser(&config); err != nil {
		return fail(c, 400, "Invalid request body")
	}

	challenge, err := challengeService.CreateChallenge(c.Context(), userID, config)
	if err != nil {
		return errorResponse(c, err)
	}

	// Fan-out is best-effort: invite failures are reported, not rolled back.
	invites, report := challengeService.DispatchInvites(c.Context(), challenge, config.FriendIDs)

	resp := fiber.Map{
		"success":      true,
		"challenge":    challenge,
		"invites":      invites,
		"invites_sent": report.Sent,
	}
	if report.Failed() {
		failed := make([]string, 0, len(report.InviteFailures))
		for friendID := range report.InviteFailures {
			failed = append(failed, friendID)
		}
		resp["invites_failed"] = failed
	}

	return c.Status(201).JSON(resp)
}

// GetChallenge returns a challenge with its derived Live/Expired status.
// GET /api/challenges/:id
func GetChallenge(c *fiber.Ctx) error {
	challenge, status, err := challengeService.GetChallenge(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"challenge":  challenge,
		"status":     status,
		"expires_at": challenge.ExpiresAt(),
	})
}

// GetActiveChallenges returns the caller's currently joinable challenges,
// soonest to expire first.
// GET /api/challenges/active
func GetActiveChallenges(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	summaries, err := challengeService.ListActiveChallenges(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"challenges": summaries,
		"count":      len(summaries),
	})
}

// EnterLobby gates the live lobby for a challenge.
// GET /api/challenges/:id/lobby
func EnterLobby(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	challenge, route, err := challengeService.EnterLobby(c.Context(), c.Params("id"), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	if route == services.RouteExpired {
		return c.Status(410).JSON(fiber.Map{
			"success": false,
			"error":   "Challenge expired",
			"route":   route,
		})
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"challenge":         challenge,
		"route":             route,
		"seconds_remaining": int64(challenge.RemainingAt(time.Now()).Seconds()),
	})
}

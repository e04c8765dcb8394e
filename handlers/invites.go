// handlers/invites.go - Invite listing and responses
package handlers

import (
	"prepclash/middleware"
	"prepclash/services"

	"github.com/gofiber/fiber/v2"
)

// GetInvites returns the caller's invites joined with challenge details,
// pending first.
// GET /api/invites
func GetInvites(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	invites, err := challengeService.ListInvites(c.Context(), userID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"invites": invites,
		"count":   len(invites),
	})
}

// RespondInvite accepts or rejects a pending invite. The response body also
// carries the routing target so the client knows whether to open the lobby,
// the results page, or an expired notice.
// POST /api/invites/:id/respond
func RespondInvite(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return fail(c, 401, "User not authenticated")
	}

	var req struct {
		Accept *bool `json:"accept"`
	}
	if err := c.BodyParser(&req); err != nil || req.Accept == nil {
		return fail(c, 400, "Request body must include accept: true or false")
	}

	invite, route, err := challengeService.Respond(c.Context(), c.Params("id"), userID, *req.Accept)
	if err != nil {
		return errorResponse(c, err)
	}

	resp := fiber.Map{
		"success": true,
		"invite":  invite,
	}
	if route != services.RouteNone {
		resp["route"] = route
	}
	return c.JSON(resp)
}

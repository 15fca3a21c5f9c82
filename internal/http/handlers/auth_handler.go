package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "tallybot/internal/log"
	"tallybot/internal/services"
)

// AuthHandler runs the access gate: one shared password authorizes a
// conversation permanently.
type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Authorize(c *fiber.Ctx, conversation string, cmd Command) error {
	if err := h.Auth.Authorize(conversation, cmd.Name, cmd.Password); err != nil {
		if errors.Is(err, services.ErrBadPassword) {
			applog.Security(c, "gate.denied", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"type": "unauthorized", "message": "wrong password"})
		}
		return fail(c, "gate.authorize", err)
	}
	applog.Audit(c, "gate.authorized", nil)
	return c.JSON(fiber.Map{"type": "authorized"})
}

// RequireAccess guards non-conversational routes (export downloads). The
// conversation id comes from the X-Conversation header.
func RequireAccess(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conversation := c.Get("X-Conversation")
		if conversation == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing conversation"})
		}
		ok, err := auth.IsAuthorized(conversation)
		if err != nil {
			return fail(c, "gate.check", err)
		}
		if !ok {
			applog.Security(c, "gate.blocked", map[string]any{"conversation": conversation})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/giglink_be/internal/utils"
)

// AttachJWTLocals copies the verified identity into userId, username and
// role locals for the handlers.
func AttachJWTLocals() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*utils.Claims)
		if !ok || claims == nil {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("username", claims.Username)
		c.Locals("role", strings.TrimSpace(claims.Role))

		return c.Next()
	}
}

package middleware

import (
	"strings"

	"boutique-store/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// RequireAdmin validates the bearer token and stores the admin identity in the context.
func RequireAdmin(tokens *jwt.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return unauthorized(c, "Invalid authorization format. Use: Bearer <token>")
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals("admin_id", claims.AdminID)
		c.Locals("admin_username", claims.Username)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "unauthorized",
		"message": message,
	})
}

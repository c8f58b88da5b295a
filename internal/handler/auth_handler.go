package handler

import (
	"boutique-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles admin authentication
// POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	response, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "token": response.Token, "admin": response.Admin})
}

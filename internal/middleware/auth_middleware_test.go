package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"boutique-store/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(tokens *jwt.Manager) *fiber.App {
	app := fiber.New()
	app.Get("/private", RequireAdmin(tokens), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("admin_username").(string))
	})
	return app
}

func TestRequireAdmin(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour)
	app := newTestApp(tokens)

	token, err := tokens.GenerateToken(1, "owner")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"bad format", "Token " + token, fiber.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"valid", "Bearer " + token, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequireAdmin_OtherSecret(t *testing.T) {
	app := newTestApp(jwt.NewManager("secret", time.Hour))
	token, err := jwt.NewManager("other", time.Hour).GenerateToken(1, "owner")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

func testApp(cfg *config.Config, extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{AuthMiddleware(cfg)}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		userID, _ := GetCurrentUserID(c)
		role, _ := GetCurrentUserRole(c)
		return c.JSON(fiber.Map{"user_id": userID, "role": role})
	})
	app.Get("/protected", handlers...)
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := testApp(cfg)

	userID := uuid.New()
	token, err := utils.GenerateToken(cfg.JWTSecret, userID, string(models.RoleBuyer), time.Hour)
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestRequireRoles(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := testApp(cfg, RequireRoles(models.RoleAdmin))

	buyerToken, err := utils.GenerateToken(cfg.JWTSecret, uuid.New(), string(models.RoleBuyer), time.Hour)
	require.NoError(t, err)
	adminToken, err := utils.GenerateToken(cfg.JWTSecret, uuid.New(), string(models.RoleAdmin), time.Hour)
	require.NoError(t, err)

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+buyerToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestOptionalAuth(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := fiber.New()
	app.Get("/open", OptionalAuth(cfg), func(c *fiber.Ctx) error {
		_, authed := GetCurrentUserID(c)
		return c.JSON(fiber.Map{"authed": authed})
	})

	t.Run("anonymous passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("bad token still passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer junk")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

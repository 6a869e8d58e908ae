package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/models"
	"github.com/example/tradegate/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// AuthMiddleware validates JWT tokens and loads the authenticated user ID
// and role into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, role, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, userID)
		c.Locals(roleContextKey, models.UserRole(role))
		return c.Next()
	}
}

// OptionalAuth loads the user ID and role into context when a valid token
// is present, but lets anonymous requests through.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if userID, role, err := utils.ParseToken(cfg.JWTSecret, parts[1]); err == nil {
				c.Locals(userContextKey, userID)
				c.Locals(roleContextKey, models.UserRole(role))
			}
		}
		return c.Next()
	}
}

// RequireRoles rejects requests whose authenticated role is not in the
// allowed set. Must run after AuthMiddleware.
func RequireRoles(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := GetCurrentUserRole(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

// GetCurrentUserRole extracts the authenticated user role from context.
func GetCurrentUserRole(c *fiber.Ctx) (models.UserRole, bool) {
	value := c.Locals(roleContextKey)
	if value == nil {
		return "", false
	}

	if role, ok := value.(models.UserRole); ok {
		return role, true
	}

	return "", false
}

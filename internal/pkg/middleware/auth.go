package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/usercontext"
)

// RoleLookup returns the profile role of a user. A missing profile is
// reported as gorm.ErrRecordNotFound.
type RoleLookup interface {
	GetRole(ctx context.Context, userID uint) (string, error)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": message,
	})
}

// RequireAPISessionAuth ensures a logged-in caller for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return unauthorized(c, "login required")
	}
	return c.Next()
}

// RequireAdmin gates the whole admin group. The role is read from the
// profile on every request so a demotion takes effect immediately.
func RequireAdmin(roles RoleLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		if !uc.IsLoggedIn || uc.UserID == 0 {
			return unauthorized(c, "login required")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		role, err := roles.GetRole(ctx, uc.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("admin gate: role lookup for user %d failed: %v", uc.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "internal_error",
				"message": err.Error(),
			})
		}
		if role != models.ROLE_ADMIN {
			return unauthorized(c, "admin access required")
		}

		uc.IsAdmin = true
		usercontext.SetUserContext(c, uc)
		return c.Next()
	}
}

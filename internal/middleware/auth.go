package middleware

import (
	"crypto/subtle"
	"strings"

	"pepeboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenHeader carries the shared secret for destructive routes.
const AdminTokenHeader = "X-Admin-Token"

// SharedSecret guards a route with a single shared secret. The secret may be
// configured in plain text (token) or as a bcrypt hash (hash); the hash wins
// when both are set. With neither configured the route stays open.
func SharedSecret(token, hash string) fiber.Handler {
	if token == "" && hash == "" {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		presented := presentedToken(c)
		if presented == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Missing admin token"))
		}

		var ok bool
		if hash != "" {
			ok = bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
		} else {
			ok = subtle.ConstantTimeCompare([]byte(token), []byte(presented)) == 1
		}
		if !ok {
			Logger.WarnContext(c.UserContext(), "rejected admin token",
				"path", c.Path(), "ip", c.IP())
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid admin token"))
		}
		return c.Next()
	}
}

// presentedToken reads the secret from X-Admin-Token or a Bearer
// Authorization header.
func presentedToken(c *fiber.Ctx) string {
	if t := c.Get(AdminTokenHeader); t != "" {
		return t
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

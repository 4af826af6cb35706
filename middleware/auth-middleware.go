package middleware

import (
	"errors"
	"strings"

	"github.com/aljonleynes11/media-coding-exam-backend/auth"
	"github.com/gofiber/fiber/v2"
)

const identityKey = "user"

var ErrNoIdentity = errors.New("no authenticated user in context")

// AuthMiddleware requires a valid bearer token and stores the caller's
// auth.Identity in the request locals.
func AuthMiddleware(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenStr := ""
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenStr = strings.TrimSpace(authHeader[7:])
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized!",
				"data":    nil,
			})
		}

		identity, err := verifier.Verify(tokenStr)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid token",
				"data":    nil,
			})
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// CheckUserLoggedIn returns the ID of the authenticated caller.
func CheckUserLoggedIn(c *fiber.Ctx) (string, error) {
	identity, ok := c.Locals(identityKey).(auth.Identity)
	if !ok || identity.UserID == "" {
		return "", ErrNoIdentity
	}
	return identity.UserID, nil
}

package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireUser ensures a user is authenticated.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := UserFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}

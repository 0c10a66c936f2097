package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/supportdesk/ticket-service/internal/auth"
	"github.com/supportdesk/ticket-service/internal/domain"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return user, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewInvalidRequest("invalid payload", nil)
	}
	return nil
}

// pathParam returns an unescaped copy of the route parameter; tags may contain reserved
// characters and outlive the request.
func pathParam(c *fiber.Ctx, key string) string {
	raw := utils.CopyString(c.Params(key))
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

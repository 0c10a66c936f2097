package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-service/internal/api/dto"
	"github.com/supportdesk/ticket-service/internal/service"
)

// ModeratorsHandler exposes the user directory and moderator management.
type ModeratorsHandler struct {
	service *service.ModeratorService
}

// NewModeratorsHandler constructs handler.
func NewModeratorsHandler(moderatorService *service.ModeratorService) *ModeratorsHandler {
	return &ModeratorsHandler{service: moderatorService}
}

// ListUsers GET /users.
func (h *ModeratorsHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// ListModerators GET /moderators.
func (h *ModeratorsHandler) ListModerators(c *fiber.Ctx) error {
	users, err := h.service.ListModerators(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// Promote POST /moderators/:id.
func (h *ModeratorsHandler) Promote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.service.Promote(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// Demote DELETE /moderators/:id.
func (h *ModeratorsHandler) Demote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.service.Demote(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

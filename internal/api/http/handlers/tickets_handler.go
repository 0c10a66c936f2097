package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-service/internal/api/dto"
	"github.com/supportdesk/ticket-service/internal/service"
)

// TicketsHandler manages ticket and tag endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), user, service.TicketCreateInput{
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Content:          req.Content,
		Status:           req.Status,
		Tags:             req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketResponse{Ticket: ticket})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	summaries, err := h.service.ListSummaries(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketListResponse{Tickets: summaries})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// EditTicket PUT /tickets/:id.
func (h *TicketsHandler) EditTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.EditTicket(c.UserContext(), user, c.Params("id"), service.TicketEditInput{
		Type:             req.Type,
		Content:          req.Content,
		ShortDescription: req.ShortDescription,
		Title:            req.Title,
		Status:           req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.DeleteTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// SetTags PUT /tickets/:id/tags.
func (h *TicketsHandler) SetTags(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SetTagsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.SetTags(c.UserContext(), user, c.Params("id"), req.Tags)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// AddTag POST /tickets/:id/tags/:tag.
func (h *TicketsHandler) AddTag(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.AddTag(c.UserContext(), user, c.Params("id"), pathParam(c, "tag"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// RemoveTag DELETE /tickets/:id/tags/:tag.
func (h *TicketsHandler) RemoveTag(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.RemoveTag(c.UserContext(), user, c.Params("id"), pathParam(c, "tag"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-service/internal/api/dto"
	"github.com/supportdesk/ticket-service/internal/service"
)

// CommentsHandler manages comment and vote endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// CreateComment POST /tickets/:id/comments.
func (h *CommentsHandler) CreateComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateComment(c.UserContext(), user, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.TicketResponse{Ticket: ticket})
}

// ListComments GET /tickets/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	comments, err := h.service.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.CommentListResponse{Comments: comments})
}

// EditComment PUT /tickets/:id/comments/:commentID.
func (h *CommentsHandler) EditComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.service.EditComment(c.UserContext(), user, c.Params("id"), c.Params("commentID"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(dto.CommentResponse{Comment: comment})
}

// DeleteComment DELETE /tickets/:id/comments/:commentID.
func (h *CommentsHandler) DeleteComment(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.DeleteComment(c.UserContext(), user, c.Params("id"), c.Params("commentID"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// Upvote PUT /tickets/:id/comments/:commentID/upvote.
func (h *CommentsHandler) Upvote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ToggleUpvote(c.UserContext(), user, c.Params("id"), c.Params("commentID"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

// Downvote PUT /tickets/:id/comments/:commentID/downvote.
func (h *CommentsHandler) Downvote(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ToggleDownvote(c.UserContext(), user, c.Params("id"), c.Params("commentID"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketResponse{Ticket: ticket})
}

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-service/internal/api/dto"
	"github.com/supportdesk/ticket-service/internal/service"
	apperrors "github.com/supportdesk/ticket-service/pkg/util/errorutil"
)

// UsersHandler exposes auth endpoints for users.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" || req.Name.FirstName == "" {
		return apperrors.NewInvalidRequest("name.firstName, email, password required", nil)
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		FirstName: req.Name.FirstName,
		LastName:  req.Name.LastName,
		Email:     req.Email,
		Password:  req.Password,
		About:     req.Info.About,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse(session))
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewInvalidRequest("email and password required", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(sessionResponse(session))
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		User: dto.NewUserProfile(s.User),
		Auth: dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}

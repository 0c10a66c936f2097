package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supportdesk/ticket-service/internal/api/http/handlers"
	"github.com/supportdesk/ticket-service/internal/auth"
	"github.com/supportdesk/ticket-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Moderators     *handlers.ModeratorsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// NewApp creates the fiber app. Immutable makes ctx values safe to keep after the handler
// returns; stored tags and metric labels depend on it.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		Immutable:             true,
	})
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())

	tickets := protected.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.EditTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	tickets.Put("/:id/tags", cfg.Tickets.SetTags)
	tickets.Post("/:id/tags/:tag", cfg.Tickets.AddTag)
	tickets.Delete("/:id/tags/:tag", cfg.Tickets.RemoveTag)

	tickets.Post("/:id/comments", cfg.Comments.CreateComment)
	tickets.Get("/:id/comments", cfg.Comments.ListComments)
	tickets.Put("/:id/comments/:commentID", cfg.Comments.EditComment)
	tickets.Delete("/:id/comments/:commentID", cfg.Comments.DeleteComment)
	tickets.Put("/:id/comments/:commentID/upvote", cfg.Comments.Upvote)
	tickets.Put("/:id/comments/:commentID/downvote", cfg.Comments.Downvote)

	protected.Get("/users", cfg.Moderators.ListUsers)
	protected.Get("/moderators", cfg.Moderators.ListModerators)
	protected.Post("/moderators/:id", cfg.Moderators.Promote)
	protected.Delete("/moderators/:id", cfg.Moderators.Demote)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	Chat           *handlers.ChatHandler
	KB             *handlers.KBHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/agents/login", cfg.Staff.Login)

	authenticated := cfg.AuthMiddleware.Handle
	requester := auth.RequireUser()
	staff := auth.RequireStaffRole()
	admin := auth.RequireStaffRole(domain.AgentRoleAdmin)

	tickets := app.Group("/tickets", authenticated)
	tickets.Post("/", requester, cfg.Tickets.CreateTicket)
	tickets.Get("/:id", auth.RequireAnyRole(), cfg.Tickets.GetTicket)
	tickets.Get("/:id/history", staff, cfg.Tickets.History)

	chat := app.Group("/chat", authenticated, requester)
	chat.Post("/messages", cfg.Chat.SendMessage)
	chat.Get("/conversations/:id", cfg.Chat.GetConversation)

	kb := app.Group("/kb", authenticated)
	kb.Get("/suggestions", staff, cfg.KB.ListSuggestions)
	kb.Post("/suggestions/:id/review", staff, cfg.KB.Review)
	kb.Post("/articles/:id/feedback", requester, cfg.KB.Feedback)

	staffGroup := app.Group("/staff", authenticated, staff)
	staffGroup.Get("/agents", cfg.Staff.ListAgents)
	staffGroup.Patch("/tickets/:id/category", cfg.Staff.OverrideCategory)
	staffGroup.Patch("/tickets/:id/status", cfg.Staff.UpdateStatus)
	staffGroup.Post("/tickets/:id/assign", admin, cfg.Staff.Assign)
}

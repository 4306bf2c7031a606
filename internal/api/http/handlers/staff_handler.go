package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// StaffHandler exposes agent login and staff ticket operations.
type StaffHandler struct {
	authService   *service.AuthService
	ticketService *service.TicketService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, ticketService *service.TicketService) *StaffHandler {
	return &StaffHandler{authService: authService, ticketService: ticketService}
}

// Login handles POST /auth/agents/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	agent, session, err := h.authService.LoginAgent(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"agent": agentResponse(agent),
			"auth":  authResponse(session),
		},
	})
}

// ListAgents handles GET /staff/agents.
func (h *StaffHandler) ListAgents(c *fiber.Ctx) error {
	agents, source := h.ticketService.ListAgents(c.UserContext())
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": fiber.Map{"source": source, "degraded": source.Degraded()},
	})
}

// OverrideCategory handles PATCH /staff/tickets/:id/category.
func (h *StaffHandler) OverrideCategory(c *fiber.Ctx) error {
	principal, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CategoryOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.ticketService.OverrideCategory(c.UserContext(), principal.ID, c.Params("id"), req.Category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus handles PATCH /staff/tickets/:id/status.
func (h *StaffHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.ticketService.UpdateStatus(c.UserContext(), principal.ID, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Assign handles POST /staff/tickets/:id/assign.
func (h *StaffHandler) Assign(c *fiber.Ctx) error {
	principal, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == "" {
		return apperrors.NewValidationError("agent_id required", nil)
	}
	ticket, err := h.ticketService.AssignTicket(c.UserContext(), principal.ID, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

func staffPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Subject != domain.SubjectTypeStaff {
		return nil, apperrors.NewForbidden("staff role required")
	}
	return principal, nil
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	skills := agent.Skills
	if skills == nil {
		skills = map[domain.Category]int{}
	}
	return dto.AgentResponse{
		ID:       agent.ID,
		Name:     agent.Name,
		Email:    agent.Email,
		Role:     agent.Role,
		Status:   agent.Status,
		Skills:   skills,
		Workload: agent.Workload,
	}
}

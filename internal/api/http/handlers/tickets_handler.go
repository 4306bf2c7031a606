package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket intake and reads.
type TicketsHandler struct {
	triage  *service.TriageService
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(triageService *service.TriageService, ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{triage: triageService, tickets: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Subject != domain.SubjectTypeUser {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	outcome, err := h.triage.SubmitTicket(c.UserContext(), principal.ID, service.TicketIntake{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": triageResponse(outcome)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	caller := service.Caller{Kind: principal.Subject, ID: principal.ID}
	ticket, source, err := h.tickets.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": ticketResponse(ticket),
		"meta": fiber.Map{"source": source, "degraded": source.Degraded()},
	})
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	entries, err := h.tickets.ListHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                  ticket.ID,
		ExternalKey:         ticket.ExternalKey,
		RequesterID:         ticket.RequesterID,
		AssigneeID:          ticket.AssigneeID,
		Title:               ticket.Title,
		Description:         ticket.Description,
		Category:            ticket.Category,
		CategorySource:      ticket.CategorySource,
		Confidence:          ticket.Confidence,
		SuggestedCategory:   ticket.SuggestedCategory,
		SuggestedConfidence: ticket.SuggestedConfidence,
		Priority:            ticket.Priority,
		Status:              ticket.Status,
		Evidence:            nonNil(ticket.Evidence),
		Tags:                nonNil(ticket.Tags),
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
		ClosedAt:            ticket.ClosedAt,
	}
}

func triageResponse(outcome *service.TriageOutcome) dto.TriageResponse {
	result := outcome.Categorization
	candidates := result.Candidates
	if candidates == nil {
		candidates = []domain.CategorySuggestion{}
	}
	suggestions := outcome.Suggestions
	if suggestions == nil {
		suggestions = []domain.ArticleCandidate{}
	}
	sources := make(map[string]string, len(outcome.Sources))
	for name, source := range outcome.Sources {
		sources[name] = string(source)
	}
	return dto.TriageResponse{
		Ticket: ticketResponse(outcome.Ticket),
		Categorization: dto.CategorizationResponse{
			Decision:   result.Decision,
			Source:     result.Source,
			Confidence: result.Confidence,
			Candidates: candidates,
			Evidence:   nonNil(result.Evidence),
			Rationale:  result.Rationale,
			Priority:   result.Priority,
			LLMUsed:    result.LLMUsed,
			LLMFailure: string(result.LLMFailure),
		},
		Suggestions:    suggestions,
		KBSuggestionID: outcome.KBSuggestionID,
		Routing:        outcome.Routing,
		Assigned:       outcome.Assigned,
		Degraded:       outcome.Degraded,
		Sources:        sources,
		Warnings:       outcome.Warnings,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// Caller identifies who is acting on a ticket.
type Caller struct {
	Kind domain.SubjectType
	ID   string
}

// TicketService coordinates ticket workflows after intake.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	agents     repository.AgentRepository
	snapshots  SnapshotStore
	catalog    *Catalog
	audit      auditTrail
	assigner   *assigner
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	AgentRepo   repository.AgentRepository
	Snapshots   SnapshotStore
	Catalog     *Catalog
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := auditTrail{repo: deps.HistoryRepo}
	return &TicketService{
		tickets:   deps.TicketRepo,
		history:   deps.HistoryRepo,
		agents:    deps.AgentRepo,
		snapshots: deps.Snapshots,
		catalog:   deps.Catalog,
		audit:     audit,
		assigner: &assigner{
			tickets:    deps.TicketRepo,
			agents:     deps.AgentRepo,
			audit:      audit,
			dispatcher: deps.Dispatcher,
			logger:     logger,
		},
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// GetTicket loads a ticket. When the primary store is down the cached copy
// is served and the returned source says so.
func (s *TicketService) GetTicket(ctx context.Context, caller Caller, ticketID string) (*domain.Ticket, DataSource, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	source := SourcePostgres
	switch {
	case err == nil:
	case repository.IsNotFound(err):
		return nil, "", apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	default:
		s.logger.Warn("ticket read failed, trying cache", zap.String("ticket_id", ticketID), zap.Error(err))
		if s.snapshots == nil {
			return nil, "", apperrors.NewPersistenceUnavailable("ticket read", err)
		}
		cached, cacheErr := s.snapshots.LoadTicket(ctx, ticketID)
		if cacheErr != nil {
			return nil, "", apperrors.NewPersistenceUnavailable("ticket read", errors.Join(err, cacheErr))
		}
		s.metrics.RecordDegradedRead("ticket", string(SourceCache))
		ticket, source = cached, SourceCache
	}
	if caller.Kind == domain.SubjectTypeUser && ticket.RequesterID != caller.ID {
		return nil, "", apperrors.NewForbidden("access denied")
	}
	return ticket, source, nil
}

// ListHistory returns the audit trail, including categorization evidence.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, readError("ticket", err)
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, readError("ticket history", err)
	}
	if entries == nil {
		entries = []domain.TicketHistory{}
	}
	return entries, nil
}

// OverrideCategory records a human category decision. It is authoritative
// over any automated result and is allowed until work starts.
func (s *TicketService) OverrideCategory(ctx context.Context, agentID, ticketID, label string) (*domain.Ticket, error) {
	category, ok := domain.ParseCategory(label)
	if !ok {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": label})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, writeError("category override", "ticket", err)
	}
	switch ticket.Status {
	case domain.TicketStatusCreated, domain.TicketStatusCategorized, domain.TicketStatusAssigned:
	default:
		return nil, apperrors.NewConflict("category can no longer be changed", map[string]any{"status": ticket.Status})
	}

	oldCategory := ticket.Category
	oldSource := ticket.CategorySource
	oldConfidence := ticket.Confidence
	oldStatus := ticket.Status

	ticket.Category = &category
	ticket.CategorySource = domain.CategorySourceManual
	ticket.Confidence = 1
	if ticket.Status == domain.TicketStatusCreated {
		ticket.Status = domain.TicketStatusCategorized
	}
	if err := s.tickets.Update(ctx, ticket, oldStatus); err != nil {
		return nil, writeError("category override", "ticket", err)
	}

	actor := staffActor(agentID)
	if err := s.audit.record(ctx, actor, ticket.ID, domain.ChangeTypeCategoryOverride,
		map[string]any{"category": categoryValue(oldCategory), "category_source": string(oldSource), "confidence": oldConfidence},
		map[string]any{"category": string(category), "category_source": string(ticket.CategorySource), "confidence": ticket.Confidence},
	); err != nil {
		s.logger.Error("record category override", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if oldStatus != ticket.Status {
		if err := s.audit.statusChange(ctx, actor, ticket.ID, oldStatus, ticket.Status); err != nil {
			s.logger.Error("record status change", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	s.metrics.RecordCategorization("manual_override", string(domain.CategorySourceManual))
	s.cacheTicket(ctx, ticket)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventCategoryOverridden,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.CategoryOverriddenPayload{OldCategory: oldCategory, NewCategory: category},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket along the lifecycle graph. Leaving active
// work for resolved, escalated or reassigned frees the agent's slot;
// escalated and reassigned also clear the assignee.
func (s *TicketService) UpdateStatus(ctx context.Context, agentID, ticketID, raw string) (*domain.Ticket, error) {
	next := domain.TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, known := allowedTransitions[next]; !known {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, writeError("status change", "ticket", err)
	}
	current := ticket.Status
	if !isValidTransition(current, next) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{"from": current, "to": next})
	}
	if next == domain.TicketStatusAssigned && ticket.AssigneeID == nil {
		return nil, apperrors.NewConflict("ticket has no assignee", nil)
	}
	if next == domain.TicketStatusCategorized && ticket.Category == nil {
		return nil, apperrors.NewConflict("ticket has no category; override the category instead", nil)
	}

	oldAssignee := ticket.AssigneeID
	releases := releasesWorkload(current, next) && oldAssignee != nil
	if next == domain.TicketStatusEscalated || next == domain.TicketStatusReassigned {
		ticket.AssigneeID = nil
	}
	if next == domain.TicketStatusClosed {
		now := s.now().UTC()
		ticket.ClosedAt = &now
	}
	ticket.Status = next
	if err := s.tickets.Update(ctx, ticket, current); err != nil {
		return nil, writeError("status change", "ticket", err)
	}
	if releases {
		if err := s.assigner.release(ctx, *oldAssignee); err != nil {
			s.logger.Error("workload release failed", zap.String("agent_id", *oldAssignee), zap.Error(err))
		}
	}

	actor := staffActor(agentID)
	if err := s.audit.statusChange(ctx, actor, ticket.ID, current, next); err != nil {
		s.logger.Error("record status change", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if oldAssignee != nil && ticket.AssigneeID == nil {
		if err := s.audit.record(ctx, actor, ticket.ID, domain.ChangeTypeAssignee,
			map[string]any{"assignee_agent_id": *oldAssignee},
			map[string]any{"assignee_agent_id": nil}); err != nil {
			s.logger.Error("record assignee change", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	s.cacheTicket(ctx, ticket)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketStatusChangedPayload{OldStatus: current, NewStatus: next},
	})
	return ticket, nil
}

// AssignTicket commits a manual assignment. The ticket must be in a state
// that can move to assigned.
func (s *TicketService) AssignTicket(ctx context.Context, actorID, ticketID, agentID string) (*domain.Ticket, error) {
	if s.agents == nil {
		return nil, apperrors.NewPersistenceUnavailable("assignment", repository.ErrUnavailable)
	}
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, writeError("assignment", "agent", err)
	}
	if !agent.Active() {
		return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agentID})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, writeError("assignment", "ticket", err)
	}
	if !isValidTransition(ticket.Status, domain.TicketStatusAssigned) {
		return nil, apperrors.NewConflict("ticket cannot be assigned in current status", map[string]any{"status": ticket.Status})
	}
	if _, err := s.assigner.assign(ctx, staffActor(actorID), ticket, agent.ID, agent.Name, "manual"); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.NewConflict("agent can no longer take work", map[string]any{"agent_id": agentID})
		}
		return nil, writeError("assignment", "ticket", err)
	}
	s.metrics.RecordRouting("manual", "committed")
	s.cacheTicket(ctx, ticket)
	return ticket, nil
}

// ListAgents returns the full roster with current workload.
func (s *TicketService) ListAgents(ctx context.Context) ([]domain.Agent, DataSource) {
	return s.catalog.Roster(ctx)
}

func (s *TicketService) cacheTicket(ctx context.Context, ticket *domain.Ticket) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveTicket(ctx, ticket); err != nil {
		s.logger.Debug("ticket snapshot not cached", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func readError(resource string, err error) error {
	if repository.IsNotFound(err) {
		return apperrors.NewNotFound(resource, nil)
	}
	return apperrors.NewPersistenceUnavailable(resource+" read", err)
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusCreated:     {domain.TicketStatusCategorized},
	domain.TicketStatusCategorized: {domain.TicketStatusAssigned},
	domain.TicketStatusAssigned:    {domain.TicketStatusInProgress, domain.TicketStatusEscalated, domain.TicketStatusReassigned},
	domain.TicketStatusInProgress:  {domain.TicketStatusResolved, domain.TicketStatusEscalated, domain.TicketStatusReassigned},
	domain.TicketStatusEscalated:   {domain.TicketStatusAssigned},
	domain.TicketStatusReassigned:  {domain.TicketStatusAssigned},
	domain.TicketStatusResolved:    {domain.TicketStatusClosed},
	domain.TicketStatusClosed:      {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func releasesWorkload(current, next domain.TicketStatus) bool {
	if current != domain.TicketStatusAssigned && current != domain.TicketStatusInProgress {
		return false
	}
	switch next {
	case domain.TicketStatusResolved, domain.TicketStatusEscalated, domain.TicketStatusReassigned:
		return true
	}
	return false
}

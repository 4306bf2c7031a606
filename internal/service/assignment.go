package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// auditTrail writes immutable history entries.
type auditTrail struct {
	repo repository.TicketHistoryRepository
}

func (a auditTrail) record(ctx context.Context, actor events.Actor, ticketID string, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Create(ctx, &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actor.Type,
		ChangedByID:   actor.ID,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	})
}

func (a auditTrail) statusChange(ctx context.Context, actor events.Actor, ticketID string, from, to domain.TicketStatus) error {
	return a.record(ctx, actor, ticketID, domain.ChangeTypeStatus,
		map[string]any{"status": from},
		map[string]any{"status": to})
}

// errTicketChanged reports that the ticket moved on between read and
// assignment. It is distinct from repository.ErrStale, which means the agent
// can no longer take work.
var errTicketChanged = errors.New("ticket changed concurrently")

// assigner commits an assignment: it takes a workload slot on the agent and
// moves the ticket to assigned, undoing the slot when the ticket write fails.
type assigner struct {
	tickets    repository.TicketRepository
	agents     repository.AgentRepository
	audit      auditTrail
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// assign returns repository.ErrStale when the agent can no longer take work.
// History failures do not undo the assignment; they are returned as warnings.
func (a *assigner) assign(ctx context.Context, actor events.Actor, ticket *domain.Ticket, agentID, agentName, reason string) ([]string, error) {
	if a.agents == nil {
		return nil, repository.ErrUnavailable
	}
	if err := a.agents.IncrementWorkload(ctx, agentID); err != nil {
		return nil, err
	}

	oldAssignee := ticket.AssigneeID
	oldStatus := ticket.Status
	id := agentID
	ticket.AssigneeID = &id
	ticket.Status = domain.TicketStatusAssigned
	if err := a.tickets.Update(ctx, ticket, oldStatus); err != nil {
		if errors.Is(err, repository.ErrStale) {
			err = errTicketChanged
		}
		ticket.AssigneeID = oldAssignee
		ticket.Status = oldStatus
		if releaseErr := a.agents.DecrementWorkload(ctx, agentID); releaseErr != nil {
			a.logger.Error("workload release after failed assignment",
				zap.String("agent_id", agentID), zap.Error(releaseErr))
		}
		return nil, err
	}

	var warnings []string
	if err := a.audit.record(ctx, actor, ticket.ID, domain.ChangeTypeAssignee,
		map[string]any{"assignee_agent_id": stringValue(oldAssignee)},
		map[string]any{"assignee_agent_id": agentID, "reason": reason}); err != nil {
		warnings = append(warnings, "assignment history not recorded")
		a.logger.Error("record assignee change", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	if oldStatus != ticket.Status {
		if err := a.audit.statusChange(ctx, actor, ticket.ID, oldStatus, ticket.Status); err != nil {
			warnings = append(warnings, "status history not recorded")
			a.logger.Error("record status change", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}
	publishEvent(ctx, a.dispatcher, a.logger, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			AgentID:   agentID,
			AgentName: agentName,
			Reason:    reason,
		},
	})
	return warnings, nil
}

// release frees the agent's workload slot. Missing agents are ignored.
func (a *assigner) release(ctx context.Context, agentID string) error {
	if a.agents == nil {
		return repository.ErrUnavailable
	}
	err := a.agents.DecrementWorkload(ctx, agentID)
	if err != nil && !repository.IsNotFound(err) && !errors.Is(err, repository.ErrStale) {
		return err
	}
	return nil
}

func withoutAgent(roster []domain.Agent, id string) []domain.Agent {
	out := make([]domain.Agent, 0, len(roster))
	for _, agent := range roster {
		if agent.ID != id {
			out = append(out, agent)
		}
	}
	return out
}

package triage

import (
	"github.com/spec-kit/servicedesk/internal/domain"
)

// RoutingReason explains how an agent was chosen.
type RoutingReason string

const (
	RoutingSkillMatch          RoutingReason = "skill_match"
	RoutingFallbackLeastLoaded RoutingReason = "fallback_least_loaded"
)

// RoutingProposal is a suggested assignment. It is never committed by the
// router; the workload it saw may be stale by the time it is applied.
type RoutingProposal struct {
	AgentID     string                `json:"agent_id"`
	AgentName   string                `json:"agent_name"`
	Category    domain.Category       `json:"category,omitempty"`
	Priority    domain.TicketPriority `json:"priority"`
	Reason      RoutingReason         `json:"reason"`
	Workload    int                   `json:"workload"`
	Proficiency int                   `json:"proficiency"`
}

// Router matches a category against the roster.
type Router struct {
	// MaxWorkload excludes skilled agents at or above it. Zero disables it.
	MaxWorkload int
}

// Propose picks the least-loaded active agent covering category, ties by
// id. Without a skilled agent it falls back to the least-loaded active
// agent. It reports false only when no agent is active.
func (r Router) Propose(category domain.Category, priority domain.TicketPriority, roster []domain.Agent) (RoutingProposal, bool) {
	var skilled, fallback *domain.Agent
	for i := range roster {
		agent := &roster[i]
		if !agent.Active() {
			continue
		}
		if lessLoaded(agent, fallback) {
			fallback = agent
		}
		if category == "" || !agent.Covers(category) {
			continue
		}
		if r.MaxWorkload > 0 && agent.Workload >= r.MaxWorkload {
			continue
		}
		if lessLoaded(agent, skilled) {
			skilled = agent
		}
	}

	chosen, reason := skilled, RoutingSkillMatch
	if chosen == nil {
		chosen, reason = fallback, RoutingFallbackLeastLoaded
	}
	if chosen == nil {
		return RoutingProposal{}, false
	}
	return RoutingProposal{
		AgentID:     chosen.ID,
		AgentName:   chosen.Name,
		Category:    category,
		Priority:    priority,
		Reason:      reason,
		Workload:    chosen.Workload,
		Proficiency: chosen.Skills[category],
	}, true
}

func lessLoaded(candidate, current *domain.Agent) bool {
	if current == nil {
		return true
	}
	if candidate.Workload != current.Workload {
		return candidate.Workload < current.Workload
	}
	return candidate.ID < current.ID
}

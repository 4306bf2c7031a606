package dto

import (
	"github.com/spec-kit/servicedesk/internal/domain"
)

// AgentResponse is the roster view of an agent. Skills are keyed by category.
type AgentResponse struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Email    string                  `json:"email"`
	Role     domain.AgentRole        `json:"role"`
	Status   domain.AgentStatus      `json:"status"`
	Skills   map[domain.Category]int `json:"skills"`
	Workload int                     `json:"workload"`
}

// CategoryOverrideRequest payload for PATCH /staff/tickets/:id/category.
type CategoryOverrideRequest struct {
	Category string `json:"category"`
}

// StatusUpdateRequest payload for PATCH /staff/tickets/:id/status.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// AssignRequest payload for POST /staff/tickets/:id/assign.
type AssignRequest struct {
	AgentID string `json:"agent_id"`
}

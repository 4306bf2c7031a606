package domain

import "time"

// AgentRole enumerates internal operator roles.
type AgentRole string

const (
	AgentRoleAgent AgentRole = "AGENT"
	AgentRoleAdmin AgentRole = "ADMIN"
)

// AgentStatus controls whether an agent receives routed work.
type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusInactive AgentStatus = "inactive"
)

// Agent models a support agent in the roster.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	// Skills maps a category to a proficiency level (1-5). A category is
	// covered when its proficiency is positive.
	Skills    map[Category]int
	Workload  int
	Status    AgentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the agent can receive work.
func (a *Agent) Active() bool {
	return a.Status == AgentStatusActive
}

// Covers reports whether the agent has a skill for the category.
func (a *Agent) Covers(category Category) bool {
	return a.Skills[category] > 0
}

package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusCreated     TicketStatus = "created"
	TicketStatusCategorized TicketStatus = "categorized"
	TicketStatusAssigned    TicketStatus = "assigned"
	TicketStatusInProgress  TicketStatus = "in_progress"
	TicketStatusResolved    TicketStatus = "resolved"
	TicketStatusClosed      TicketStatus = "closed"
	TicketStatusEscalated   TicketStatus = "escalated"
	TicketStatusReassigned  TicketStatus = "reassigned"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// CategorySource records who decided the authoritative category.
type CategorySource string

const (
	CategorySourceNone        CategorySource = ""
	CategorySourceAIAuto      CategorySource = "ai_auto"
	CategorySourceAISuggested CategorySource = "ai_suggested"
	CategorySourceManual      CategorySource = "manual"
)

// Ticket is the aggregate for support requests.
//
// Category and Confidence are authoritative. SuggestedCategory and
// SuggestedConfidence hold the AI output and are kept even when a human
// decision overrides it.
type Ticket struct {
	ID                  string
	ExternalKey         string
	RequesterID         string
	AssigneeID          *string
	Title               string
	Description         string
	Category            *Category
	CategorySource      CategorySource
	Priority            TicketPriority
	Status              TicketStatus
	Confidence          float64
	SuggestedCategory   *Category
	SuggestedConfidence float64
	Evidence            []string
	Tags                []string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ClosedAt            *time.Time
}

// Text returns the concatenated title and description used by triage.
func (t *Ticket) Text() string {
	return t.Title + "\n" + t.Description
}

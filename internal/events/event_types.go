package events

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTriaged       EventType = "ticket_triaged"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventCategoryOverridden  EventType = "ticket_category_overridden"
	EventChatEscalated       EventType = "chat_escalated"
	EventKBReviewed          EventType = "kb_suggestion_reviewed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   *string          `json:"id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketTriagedPayload payload.
type TicketTriagedPayload struct {
	Category   *domain.Category      `json:"category,omitempty"`
	Confidence float64               `json:"confidence"`
	Decision   string                `json:"decision"`
	Priority   domain.TicketPriority `json:"priority"`
	LLMUsed    bool                  `json:"llm_used"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Reason    string `json:"reason"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// CategoryOverriddenPayload payload.
type CategoryOverriddenPayload struct {
	OldCategory *domain.Category `json:"old_category,omitempty"`
	NewCategory domain.Category  `json:"new_category"`
}

// ChatEscalatedPayload payload.
type ChatEscalatedPayload struct {
	ConversationID string   `json:"conversation_id"`
	Reasons        []string `json:"reasons"`
}

// KBReviewedPayload payload.
type KBReviewedPayload struct {
	SuggestionID string                    `json:"suggestion_id"`
	Status       domain.KBSuggestionStatus `json:"status"`
}

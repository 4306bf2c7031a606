package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/triage"
)

// CreateTicketRequest payload. Category and priority are optional.
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID                  string                `json:"id"`
	ExternalKey         string                `json:"external_key"`
	RequesterID         string                `json:"requester_id"`
	AssigneeID          *string               `json:"assignee_agent_id"`
	Title               string                `json:"title"`
	Description         string                `json:"description"`
	Category            *domain.Category      `json:"category"`
	CategorySource      domain.CategorySource `json:"category_source,omitempty"`
	Confidence          float64               `json:"confidence"`
	SuggestedCategory   *domain.Category      `json:"suggested_category"`
	SuggestedConfidence float64               `json:"suggested_confidence"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	Evidence            []string              `json:"evidence"`
	Tags                []string              `json:"tags"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	ClosedAt            *time.Time            `json:"closed_at"`
}

// CategorizationResponse explains how the category was reached.
type CategorizationResponse struct {
	Decision   triage.Decision             `json:"decision"`
	Source     domain.SuggestionSource     `json:"source,omitempty"`
	Confidence float64                     `json:"confidence"`
	Candidates []domain.CategorySuggestion `json:"candidates"`
	Evidence   []string                    `json:"evidence"`
	Rationale  string                      `json:"rationale,omitempty"`
	Priority   triage.PriorityAssessment   `json:"priority"`
	LLMUsed    bool                        `json:"llm_used"`
	LLMFailure string                      `json:"llm_failure,omitempty"`
}

// TriageResponse is returned by POST /tickets.
type TriageResponse struct {
	Ticket         TicketResponse            `json:"ticket"`
	Categorization CategorizationResponse    `json:"categorization"`
	Suggestions    []domain.ArticleCandidate `json:"kb_suggestions"`
	KBSuggestionID *string                   `json:"kb_suggestion_id"`
	Routing        *triage.RoutingProposal   `json:"routing"`
	Assigned       bool                      `json:"assigned"`
	Degraded       bool                      `json:"degraded"`
	Sources        map[string]string         `json:"sources"`
	Warnings       []string                  `json:"warnings,omitempty"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByType domain.ActorType        `json:"changed_by_type"`
	ChangedByID   *string                 `json:"changed_by_id"`
	OldValue      map[string]any          `json:"old_value"`
	NewValue      map[string]any          `json:"new_value"`
	CreatedAt     time.Time               `json:"created_at"`
}

package domain

import "time"

// ChatRole differentiates conversation participants.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one append-only entry in a conversation.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatTurn is the outcome of one chat message.
type ChatTurn struct {
	ConversationID  string             `json:"conversation_id"`
	Message         string             `json:"message"`
	Response        string             `json:"response"`
	Intent          *Category          `json:"intent,omitempty"`
	Confidence      float64            `json:"confidence"`
	EscalateToHuman bool               `json:"escalate_to_human"`
	EscalationNotes []string           `json:"escalation_reasons,omitempty"`
	Suggestions     []ArticleCandidate `json:"suggestions"`
	LLMUsed         bool               `json:"llm_used"`
	Degraded        bool               `json:"degraded"`
	CreatedAt       time.Time          `json:"created_at"`
}

package domain

import "time"

// Article is a knowledge-base entry.
type Article struct {
	ID             string
	Title          string
	Content        string
	Category       Category
	Tags           []string
	Author         string
	Views          int
	HelpfulVotes   int
	UnhelpfulVotes int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ArticleCandidate is an article scored against a ticket or chat message.
type ArticleCandidate struct {
	ArticleID string    `json:"article_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Relevance float64   `json:"relevance"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KBSuggestionStatus tracks human review of ranked articles.
type KBSuggestionStatus string

const (
	KBSuggestionPending  KBSuggestionStatus = "pending"
	KBSuggestionApproved KBSuggestionStatus = "approved"
	KBSuggestionRejected KBSuggestionStatus = "rejected"
	KBSuggestionEdited   KBSuggestionStatus = "edited"
)

// Terminal reports whether no further review is possible.
func (s KBSuggestionStatus) Terminal() bool {
	return s == KBSuggestionApproved || s == KBSuggestionRejected
}

// KBSuggestion bundles a ticket with ranked articles awaiting review.
type KBSuggestion struct {
	ID         string
	TicketID   string
	Articles   []ArticleCandidate
	Status     KBSuggestionStatus
	Feedback   *string
	ReviewedBy *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// KBReviewRequest payload for POST /kb/suggestions/:id/review.
type KBReviewRequest struct {
	Action     string   `json:"action"`
	Feedback   string   `json:"feedback"`
	ArticleIDs []string `json:"article_ids"`
}

// ArticleFeedbackRequest payload for POST /kb/articles/:id/feedback.
type ArticleFeedbackRequest struct {
	Helpful *bool `json:"helpful"`
}

// KBSuggestionResponse is one review queue entry.
type KBSuggestionResponse struct {
	ID         string                    `json:"id"`
	TicketID   string                    `json:"ticket_id"`
	Articles   []domain.ArticleCandidate `json:"articles"`
	Status     domain.KBSuggestionStatus `json:"status"`
	Feedback   *string                   `json:"feedback"`
	ReviewedBy *string                   `json:"reviewed_by"`
	CreatedAt  time.Time                 `json:"created_at"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// ArticleResponse is the vote result view of an article.
type ArticleResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Category       domain.Category `json:"category"`
	Views          int             `json:"views"`
	HelpfulVotes   int             `json:"helpful_votes"`
	UnhelpfulVotes int             `json:"unhelpful_votes"`
}

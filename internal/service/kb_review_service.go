package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// ReviewAction is a reviewer's verdict on a suggestion.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
	ReviewEdit    ReviewAction = "edit"
)

// ReviewInput carries one review. ArticleIDs is the kept subset for edits.
type ReviewInput struct {
	Action     ReviewAction
	Feedback   string
	ArticleIDs []string
}

// KBReviewService records human review of suggested articles. Reviews are
// stored only; they never change how articles are scored.
type KBReviewService struct {
	suggestions repository.KBSuggestionRepository
	articles    repository.ArticleRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// KBReviewDependencies bundles collaborators for the review service.
type KBReviewDependencies struct {
	KBSuggestionRepo repository.KBSuggestionRepository
	ArticleRepo      repository.ArticleRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

func NewKBReviewService(deps KBReviewDependencies) *KBReviewService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KBReviewService{
		suggestions: deps.KBSuggestionRepo,
		articles:    deps.ArticleRepo,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		metrics:     deps.Metrics,
	}
}

// List returns the review queue, optionally filtered by status.
func (s *KBReviewService) List(ctx context.Context, status string, limit int) ([]domain.KBSuggestion, error) {
	var filter *domain.KBSuggestionStatus
	if status = strings.TrimSpace(status); status != "" {
		st := domain.KBSuggestionStatus(strings.ToLower(status))
		switch st {
		case domain.KBSuggestionPending, domain.KBSuggestionApproved, domain.KBSuggestionRejected, domain.KBSuggestionEdited:
			filter = &st
		default:
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
	}
	list, err := s.suggestions.List(ctx, filter, limit)
	if err != nil {
		return nil, readError("kb suggestions", err)
	}
	if list == nil {
		list = []domain.KBSuggestion{}
	}
	return list, nil
}

// Review applies approve, reject or edit. Pending suggestions accept all
// three; edited ones can only be approved or rejected; approved and rejected
// are final.
func (s *KBReviewService) Review(ctx context.Context, reviewerID, suggestionID string, input ReviewInput) (*domain.KBSuggestion, error) {
	feedback := strings.TrimSpace(input.Feedback)
	suggestion, err := s.suggestions.GetByID(ctx, suggestionID)
	if err != nil {
		return nil, writeError("kb review", "kb suggestion", err)
	}
	current := suggestion.Status
	if current.Terminal() {
		return nil, apperrors.NewConflict("suggestion already reviewed", map[string]any{"status": current})
	}

	switch input.Action {
	case ReviewApprove:
		suggestion.Status = domain.KBSuggestionApproved
	case ReviewReject:
		suggestion.Status = domain.KBSuggestionRejected
	case ReviewEdit:
		if current != domain.KBSuggestionPending {
			return nil, apperrors.NewConflict("only pending suggestions can be edited", map[string]any{"status": current})
		}
		if feedback == "" {
			return nil, apperrors.NewValidationError("feedback is required for edits", nil)
		}
		kept, err := subsetOf(suggestion.Articles, input.ArticleIDs)
		if err != nil {
			return nil, err
		}
		suggestion.Articles = kept
		suggestion.Status = domain.KBSuggestionEdited
	default:
		return nil, apperrors.NewValidationError("action must be approve, reject or edit", map[string]any{"action": input.Action})
	}
	if feedback != "" {
		suggestion.Feedback = &feedback
	}
	reviewer := reviewerID
	suggestion.ReviewedBy = &reviewer

	if err := s.suggestions.UpdateReview(ctx, suggestion, current); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return nil, apperrors.NewConflict("suggestion was reviewed concurrently", nil)
		}
		return nil, writeError("kb review", "kb suggestion", err)
	}
	s.metrics.RecordKBReview(string(input.Action))
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventKBReviewed,
		TicketID: suggestion.TicketID,
		Actor:    staffActor(reviewerID),
		Payload:  events.KBReviewedPayload{SuggestionID: suggestion.ID, Status: suggestion.Status},
	})
	return suggestion, nil
}

// Vote records a helpful or unhelpful vote on an article.
func (s *KBReviewService) Vote(ctx context.Context, articleID string, helpful bool) (*domain.Article, error) {
	article, err := s.articles.RecordVote(ctx, articleID, helpful)
	if err != nil {
		return nil, writeError("article vote", "article", err)
	}
	return article, nil
}

// subsetOf keeps the listed articles in their ranked order. Ids outside the
// suggestion are rejected.
func subsetOf(articles []domain.ArticleCandidate, ids []string) ([]domain.ArticleCandidate, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("article_ids is required for edits", nil)
	}
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	kept := make([]domain.ArticleCandidate, 0, len(wanted))
	for _, article := range articles {
		if _, ok := wanted[article.ArticleID]; ok {
			kept = append(kept, article)
			delete(wanted, article.ArticleID)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for id := range wanted {
			unknown = append(unknown, id)
		}
		return nil, apperrors.NewValidationError("articles not part of the suggestion", map[string]any{"article_ids": unknown})
	}
	return kept, nil
}

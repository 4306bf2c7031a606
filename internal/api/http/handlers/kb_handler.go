package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/dto"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const defaultReviewPageSize = 50

// KBHandler exposes the knowledge-base review queue and article votes.
type KBHandler struct {
	review *service.KBReviewService
}

// NewKBHandler constructs handler.
func NewKBHandler(reviewService *service.KBReviewService) *KBHandler {
	return &KBHandler{review: reviewService}
}

// ListSuggestions GET /kb/suggestions?status=.
func (h *KBHandler) ListSuggestions(c *fiber.Ctx) error {
	limit := parseInt(c.Query("limit"), defaultReviewPageSize)
	list, err := h.review.List(c.UserContext(), c.Query("status"), limit)
	if err != nil {
		return err
	}
	items := make([]dto.KBSuggestionResponse, 0, len(list))
	for i := range list {
		items = append(items, suggestionResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Review POST /kb/suggestions/:id/review.
func (h *KBHandler) Review(c *fiber.Ctx) error {
	principal, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.KBReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suggestion, err := h.review.Review(c.UserContext(), principal.ID, c.Params("id"), service.ReviewInput{
		Action:     service.ReviewAction(strings.ToLower(strings.TrimSpace(req.Action))),
		Feedback:   req.Feedback,
		ArticleIDs: req.ArticleIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": suggestionResponse(suggestion)})
}

// Feedback POST /kb/articles/:id/feedback.
func (h *KBHandler) Feedback(c *fiber.Ctx) error {
	var req dto.ArticleFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Helpful == nil {
		return apperrors.NewValidationError("helpful required", nil)
	}
	article, err := h.review.Vote(c.UserContext(), c.Params("id"), *req.Helpful)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ArticleResponse{
		ID:             article.ID,
		Title:          article.Title,
		Category:       article.Category,
		Views:          article.Views,
		HelpfulVotes:   article.HelpfulVotes,
		UnhelpfulVotes: article.UnhelpfulVotes,
	}})
}

func suggestionResponse(s *domain.KBSuggestion) dto.KBSuggestionResponse {
	articles := s.Articles
	if articles == nil {
		articles = []domain.ArticleCandidate{}
	}
	return dto.KBSuggestionResponse{
		ID:         s.ID,
		TicketID:   s.TicketID,
		Articles:   articles,
		Status:     s.Status,
		Feedback:   s.Feedback,
		ReviewedBy: s.ReviewedBy,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

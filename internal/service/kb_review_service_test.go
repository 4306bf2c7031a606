package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/seed"
)

func newReviewHarness(t *testing.T) (*KBReviewService, *fakeSuggestions, *fakeArticles, *recordingDispatcher) {
	t.Helper()
	suggestions := newFakeSuggestions()
	articles := &fakeArticles{rows: seed.Articles()}
	dispatcher := &recordingDispatcher{}
	svc := NewKBReviewService(KBReviewDependencies{
		KBSuggestionRepo: suggestions,
		ArticleRepo:      articles,
		Dispatcher:       dispatcher,
	})
	return svc, suggestions, articles, dispatcher
}

func pendingSuggestion(t *testing.T, repo *fakeSuggestions) *domain.KBSuggestion {
	t.Helper()
	s := &domain.KBSuggestion{
		TicketID: "ticket-1",
		Status:   domain.KBSuggestionPending,
		Articles: []domain.ArticleCandidate{
			{ArticleID: "a1", Title: "VPN Connection Setup Guide", Relevance: 0.9},
			{ArticleID: "a2", Title: "VPN Troubleshooting Checklist", Relevance: 0.7},
			{ArticleID: "a3", Title: "Wi-Fi Connection Troubleshooting", Relevance: 0.4},
		},
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestReviewApprove(t *testing.T) {
	svc, repo, _, dispatcher := newReviewHarness(t)
	s := pendingSuggestion(t, repo)

	reviewed, err := svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewApprove, Feedback: " looks right "})
	require.NoError(t, err)
	assert.Equal(t, domain.KBSuggestionApproved, reviewed.Status)
	require.NotNil(t, reviewed.Feedback)
	assert.Equal(t, "looks right", *reviewed.Feedback)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "agent-1", *reviewed.ReviewedBy)
	assert.Len(t, reviewed.Articles, 3)
	assert.Equal(t, []events.EventType{events.EventKBReviewed}, dispatcher.types())

	_, err = svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewReject})
	requireDomainCode(t, err, "CONFLICT")
}

func TestReviewEditKeepsRankedSubset(t *testing.T) {
	svc, repo, _, _ := newReviewHarness(t)
	s := pendingSuggestion(t, repo)

	reviewed, err := svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{
		Action:     ReviewEdit,
		Feedback:   "checklist first is fine, drop wifi",
		ArticleIDs: []string{"a2", "a1"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KBSuggestionEdited, reviewed.Status)
	require.Len(t, reviewed.Articles, 2)
	assert.Equal(t, "a1", reviewed.Articles[0].ArticleID)
	assert.Equal(t, "a2", reviewed.Articles[1].ArticleID)

	_, err = svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewEdit, Feedback: "again", ArticleIDs: []string{"a1"}})
	requireDomainCode(t, err, "CONFLICT")

	approved, err := svc.Review(context.Background(), "agent-2", s.ID, ReviewInput{Action: ReviewApprove})
	require.NoError(t, err)
	assert.Equal(t, domain.KBSuggestionApproved, approved.Status)
}

func TestReviewEditValidation(t *testing.T) {
	svc, repo, _, _ := newReviewHarness(t)
	s := pendingSuggestion(t, repo)

	_, err := svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewEdit, ArticleIDs: []string{"a1"}})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewEdit, Feedback: "x"})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: ReviewEdit, Feedback: "x", ArticleIDs: []string{"zz"}})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Review(context.Background(), "agent-1", s.ID, ReviewInput{Action: "publish"})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	_, err = svc.Review(context.Background(), "agent-1", "missing", ReviewInput{Action: ReviewApprove})
	requireDomainCode(t, err, "NOT_FOUND")

	stored, err := repo.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.KBSuggestionPending, stored.Status)
}

func TestListSuggestionsByStatus(t *testing.T) {
	svc, repo, _, _ := newReviewHarness(t)
	first := pendingSuggestion(t, repo)
	pendingSuggestion(t, repo)
	_, err := svc.Review(context.Background(), "agent-1", first.ID, ReviewInput{Action: ReviewReject})
	require.NoError(t, err)

	pending, err := svc.List(context.Background(), "PENDING", 50)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := svc.List(context.Background(), "", 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(context.Background(), "archived", 50)
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestVote(t *testing.T) {
	svc, _, articles, _ := newReviewHarness(t)
	id := articles.rows[0].ID

	article, err := svc.Vote(context.Background(), id, true)
	require.NoError(t, err)
	assert.Equal(t, 1, article.HelpfulVotes)

	article, err = svc.Vote(context.Background(), id, false)
	require.NoError(t, err)
	assert.Equal(t, 1, article.UnhelpfulVotes)

	_, err = svc.Vote(context.Background(), "missing", true)
	requireDomainCode(t, err, "NOT_FOUND")
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/llm"
	"github.com/spec-kit/servicedesk/internal/seed"
	"github.com/spec-kit/servicedesk/internal/triage"
)

type chatHarness struct {
	svc           *ChatService
	conversations *fakeConversations
	articles      *fakeArticles
	dispatcher    *recordingDispatcher
}

func newChatHarness(t *testing.T, client llm.Client) *chatHarness {
	t.Helper()
	h := &chatHarness{
		conversations: newFakeConversations(),
		articles:      &fakeArticles{rows: seed.Articles()},
		dispatcher:    &recordingDispatcher{},
	}
	h.svc = NewChatService(ChatDependencies{
		Conversations: h.conversations,
		Catalog:       NewCatalog(CatalogDependencies{ArticleRepo: h.articles}),
		LLM:           client,
		Dispatcher:    h.dispatcher,
	})
	return h
}

func replyLLM(reply string) *stubLLM {
	return &stubLLM{byTask: map[llm.TaskType]*llm.Result{
		llm.TaskChatRespond: {Task: llm.TaskChatRespond, Reply: reply},
	}}
}

func TestHandleMessageWithModelReply(t *testing.T) {
	client := replyLLM("Use the self-service portal to reset your password.")
	h := newChatHarness(t, client)

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "How do I reset my password?"})
	require.NoError(t, err)

	assert.NotEmpty(t, turn.ConversationID)
	assert.True(t, turn.LLMUsed)
	assert.Equal(t, 0.8, turn.Confidence)
	assert.False(t, turn.EscalateToHuman)
	assert.Equal(t, "Use the self-service portal to reset your password.", turn.Response)
	require.NotNil(t, turn.Intent)
	assert.Equal(t, domain.CategoryAccess, *turn.Intent)
	require.NotEmpty(t, turn.Suggestions)
	assert.False(t, turn.Degraded)

	require.Len(t, client.calls, 1)
	assert.LessOrEqual(t, len(client.calls[0].Articles), chatPromptArticles)
	assert.Positive(t, h.articles.views[turn.Suggestions[0].ArticleID])

	messages, err := h.svc.History(context.Background(), "user-1", turn.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.ChatRoleUser, messages[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, messages[1].Role)
}

func TestHandleMessageFallbackEscalatesOnLowConfidence(t *testing.T) {
	h := newChatHarness(t, nil)

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "How do I reset my password?"})
	require.NoError(t, err)

	assert.False(t, turn.LLMUsed)
	assert.Equal(t, 0.3, turn.Confidence)
	assert.True(t, turn.EscalateToHuman)
	assert.Equal(t, []string{string(triage.EscalationLowConfidence)}, turn.EscalationNotes)
	assert.Contains(t, turn.Response, "These knowledge-base articles may help:")
	assert.Contains(t, turn.Response, triage.HumanContactMessage)
	assert.Contains(t, h.dispatcher.types(), events.EventChatEscalated)
}

func TestHandleMessageModelFailureFallsBack(t *testing.T) {
	client := &stubLLM{err: &llm.Failure{Kind: llm.FailureTimeout, Task: llm.TaskChatRespond}}
	h := newChatHarness(t, client)

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "printer shows an error"})
	require.NoError(t, err)
	assert.False(t, turn.LLMUsed)
	assert.Equal(t, 0.3, turn.Confidence)
	assert.True(t, turn.EscalateToHuman)
}

func TestHandleMessageEscalatesOnKeyword(t *testing.T) {
	h := newChatHarness(t, replyLLM("Sure, let me help."))

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "I want to talk to a human please"})
	require.NoError(t, err)

	assert.True(t, turn.LLMUsed)
	assert.True(t, turn.EscalateToHuman)
	assert.Contains(t, turn.EscalationNotes, string(triage.EscalationKeyword))
	assert.Contains(t, turn.EscalationNotes, "keyword:human")
	assert.NotContains(t, turn.EscalationNotes, string(triage.EscalationLowConfidence))
}

func TestHandleMessageRejectsForeignConversation(t *testing.T) {
	h := newChatHarness(t, nil)

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "vpn keeps dropping"})
	require.NoError(t, err)

	_, err = h.svc.HandleMessage(context.Background(), "user-2", ChatRequest{ConversationID: turn.ConversationID, Message: "hello"})
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = h.svc.History(context.Background(), "user-2", turn.ConversationID)
	requireDomainCode(t, err, "NOT_FOUND")

	_, err = h.svc.History(context.Background(), "user-1", "unknown")
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestHandleMessageContinuesConversation(t *testing.T) {
	client := replyLLM("Try reconnecting.")
	h := newChatHarness(t, client)

	first, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "wifi is slow"})
	require.NoError(t, err)
	_, err = h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{ConversationID: first.ConversationID, Message: "still slow"})
	require.NoError(t, err)

	require.Len(t, client.calls, 2)
	assert.Len(t, client.calls[1].History, 2)

	messages, err := h.svc.History(context.Background(), "user-1", first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestHandleMessageDegradesWithoutHistoryStore(t *testing.T) {
	h := newChatHarness(t, replyLLM("Try reconnecting."))
	h.conversations.err = errors.New("redis down")

	turn, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "wifi is slow"})
	require.NoError(t, err)
	assert.True(t, turn.Degraded)
	assert.True(t, turn.LLMUsed)
}

func TestHandleMessageValidation(t *testing.T) {
	h := newChatHarness(t, nil)

	_, err := h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: "   "})
	requireDomainCode(t, err, "VALIDATION_FAILED")

	long := make([]rune, maxChatMessageRunes+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = h.svc.HandleMessage(context.Background(), "user-1", ChatRequest{Message: string(long)})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestFallbackReplyWithoutArticles(t *testing.T) {
	assert.Equal(t, "I couldn't find a knowledge-base article that matches your question.", fallbackReply(nil))
}

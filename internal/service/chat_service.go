package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/cache"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/llm"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/triage"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const (
	maxChatMessageRunes = 2000
	chatPromptArticles  = 3
)

// ConversationStore is the append-only chat log. *cache.ChatHistory
// implements it.
type ConversationStore interface {
	Claim(ctx context.Context, conversationID, ownerID string) (bool, error)
	Owner(ctx context.Context, conversationID string) (string, error)
	Append(ctx context.Context, conversationID string, messages ...domain.ChatMessage) error
	Load(ctx context.Context, conversationID string) ([]domain.ChatMessage, error)
}

// ChatRequest is one requester message. An empty ConversationID starts a
// new conversation.
type ChatRequest struct {
	ConversationID string
	Message        string
}

// ChatService answers chat messages and decides when to hand off to a human.
type ChatService struct {
	conversations ConversationStore
	catalog       *Catalog
	taxonomy      *triage.Taxonomy
	normalizer    triage.Normalizer
	ranker        *triage.KBRanker
	governor      *triage.Governor
	confidence    triage.ChatConfidence
	llm           llm.Client
	llmTimeout    time.Duration
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	Conversations ConversationStore
	Catalog       *Catalog
	Taxonomy      *triage.Taxonomy
	Normalizer    triage.Normalizer
	Ranker        *triage.KBRanker
	Governor      *triage.Governor
	Confidence    triage.ChatConfidence
	// LLM is optional; without it every reply is built from articles.
	LLM        llm.Client
	LLMTimeout time.Duration
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

func NewChatService(deps ChatDependencies) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	taxonomy := deps.Taxonomy
	if taxonomy == nil {
		taxonomy = triage.DefaultTaxonomy()
	}
	normalizer := deps.Normalizer
	if normalizer == (triage.Normalizer{}) {
		normalizer = triage.DefaultNormalizer()
	}
	governor := deps.Governor
	if governor == nil {
		governor = triage.NewGovernor(taxonomy, 0)
	}
	confidence := deps.Confidence
	if confidence == (triage.ChatConfidence{}) {
		confidence = triage.DefaultChatConfidence()
	}
	ranker := deps.Ranker
	if ranker == nil {
		ranker = triage.NewKBRanker(triage.KBRankerConfig{Logger: logger})
	}
	return &ChatService{
		conversations: deps.Conversations,
		catalog:       deps.Catalog,
		taxonomy:      taxonomy,
		normalizer:    normalizer,
		ranker:        ranker,
		governor:      governor,
		confidence:    confidence,
		llm:           deps.LLM,
		llmTimeout:    deps.LLMTimeout,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		metrics:       deps.Metrics,
		now:           time.Now,
	}
}

// HandleMessage produces one chat turn. Model, history and article failures
// degrade the answer; only invalid input and foreign conversations fail.
func (s *ChatService) HandleMessage(ctx context.Context, requesterID string, req ChatRequest) (*domain.ChatTurn, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	if utf8.RuneCountInString(message) > maxChatMessageRunes {
		return nil, apperrors.NewValidationError("message too long", map[string]any{"max_runes": maxChatMessageRunes})
	}

	turn := &domain.ChatTurn{
		ConversationID: strings.TrimSpace(req.ConversationID),
		Message:        message,
		CreatedAt:      s.now().UTC(),
	}
	if turn.ConversationID == "" {
		turn.ConversationID = newConversationID(turn.CreatedAt)
	}

	history, err := s.openConversation(ctx, turn.ConversationID, requesterID)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		turn.Degraded = true
		s.logger.Warn("chat history unavailable", zap.String("conversation_id", turn.ConversationID), zap.Error(err))
	}

	if top, ok := firstCandidate(s.normalizer.Rank(triage.ScoreLexical(message, s.taxonomy))); ok {
		intent := top.Category
		turn.Intent = &intent
	}

	articles, source := s.catalog.Articles(ctx, s.ranker.PoolCap())
	if source.Degraded() {
		turn.Degraded = true
	}
	turn.Suggestions = s.ranker.Rank(ctx, message, articles).Articles
	if !source.Degraded() {
		s.catalog.RecordViews(ctx, turn.Suggestions)
	}

	turn.Response, turn.LLMUsed = s.respond(ctx, message, history, turn.Suggestions)
	turn.Confidence = s.confidence.For(turn.LLMUsed)

	decision := s.governor.Decide(message, turn.Confidence)
	if decision.Escalate {
		turn.EscalateToHuman = true
		turn.Response = strings.TrimSpace(turn.Response + "\n\n" + triage.HumanContactMessage)
		for _, reason := range decision.Reasons {
			turn.EscalationNotes = append(turn.EscalationNotes, string(reason))
			s.metrics.RecordEscalation(string(reason))
		}
		for _, keyword := range decision.MatchedKeywords {
			turn.EscalationNotes = append(turn.EscalationNotes, "keyword:"+keyword)
		}
		publishEvent(ctx, s.dispatcher, s.logger, events.Event{
			Type:  events.EventChatEscalated,
			Actor: userActor(requesterID),
			Payload: events.ChatEscalatedPayload{
				ConversationID: turn.ConversationID,
				Reasons:        turn.EscalationNotes,
			},
		})
	}

	if err := s.append(ctx, turn); err != nil {
		turn.Degraded = true
		s.logger.Warn("chat turn not stored", zap.String("conversation_id", turn.ConversationID), zap.Error(err))
	}
	return turn, nil
}

// History returns a conversation oldest first. Only its owner may read it.
func (s *ChatService) History(ctx context.Context, requesterID, conversationID string) ([]domain.ChatMessage, error) {
	if s.conversations == nil {
		return nil, apperrors.NewPersistenceUnavailable("chat history read", errors.New("no conversation store"))
	}
	owner, err := s.conversations.Owner(ctx, conversationID)
	if err != nil {
		if isCacheMiss(err) {
			return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
		}
		return nil, apperrors.NewPersistenceUnavailable("chat history read", err)
	}
	if owner != requesterID {
		return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
	}
	messages, err := s.conversations.Load(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewPersistenceUnavailable("chat history read", err)
	}
	return messages, nil
}

func (s *ChatService) openConversation(ctx context.Context, conversationID, requesterID string) ([]domain.ChatMessage, error) {
	if s.conversations == nil {
		return nil, errors.New("no conversation store")
	}
	owned, err := s.conversations.Claim(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, apperrors.NewNotFound("conversation", map[string]any{"conversation_id": conversationID})
	}
	return s.conversations.Load(ctx, conversationID)
}

func (s *ChatService) append(ctx context.Context, turn *domain.ChatTurn) error {
	if s.conversations == nil {
		return errors.New("no conversation store")
	}
	return s.conversations.Append(ctx, turn.ConversationID,
		domain.ChatMessage{Role: domain.ChatRoleUser, Text: turn.Message, CreatedAt: turn.CreatedAt},
		domain.ChatMessage{Role: domain.ChatRoleAssistant, Text: turn.Response, CreatedAt: s.now().UTC()},
	)
}

// respond asks the model for a reply and falls back to an article digest.
func (s *ChatService) respond(ctx context.Context, message string, history []domain.ChatMessage, suggestions []domain.ArticleCandidate) (string, bool) {
	if s.llm != nil {
		refs := make([]llm.ArticleRef, 0, chatPromptArticles)
		for i, article := range suggestions {
			if i == chatPromptArticles {
				break
			}
			refs = append(refs, llm.ArticleRef{ID: article.ArticleID, Title: article.Title, Summary: digest(article.Content)})
		}
		res, err := s.llm.Complete(ctx, llm.Request{
			Task:     llm.TaskChatRespond,
			Text:     message,
			Articles: refs,
			History:  history,
			Timeout:  s.llmTimeout,
		})
		if err == nil && res != nil && res.Reply != "" {
			return res.Reply, true
		}
		s.logger.Warn("chat reply fell back to articles", zap.String("failure", string(llm.KindOf(err))))
	}
	return fallbackReply(suggestions), false
}

func fallbackReply(suggestions []domain.ArticleCandidate) string {
	if len(suggestions) == 0 {
		return "I couldn't find a knowledge-base article that matches your question."
	}
	var b strings.Builder
	b.WriteString("These knowledge-base articles may help:")
	for _, article := range suggestions {
		fmt.Fprintf(&b, "\n- %s", article.Title)
	}
	return b.String()
}

func digest(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(content) <= 280 {
		return content
	}
	runes := []rune(content)
	return string(runes[:280]) + "..."
}

func firstCandidate(list []domain.CategorySuggestion) (domain.CategorySuggestion, bool) {
	if len(list) == 0 {
		return domain.CategorySuggestion{}, false
	}
	return list[0], true
}

func isCacheMiss(err error) bool {
	return errors.Is(err, cache.ErrMiss)
}

func newConversationID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), rand.Reader).String()
}

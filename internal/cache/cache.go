// Package cache keeps Redis snapshots of the read models the triage pipeline
// depends on, and the append-only chat history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// ErrDisabled is returned by a Store built without a client.
var ErrDisabled = errors.New("cache disabled")

const (
	keyArticles = "servicedesk:snapshot:articles"
	keyAgents   = "servicedesk:snapshot:agents"
	keyTicket   = "servicedesk:ticket:"
)

// Store persists JSON snapshots with a TTL.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore wraps client. A nil client yields a Store whose calls all fail
// with ErrDisabled.
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) SaveArticles(ctx context.Context, articles []domain.Article) error {
	return s.put(ctx, keyArticles, articles)
}

func (s *Store) LoadArticles(ctx context.Context) ([]domain.Article, error) {
	var articles []domain.Article
	if err := s.get(ctx, keyArticles, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// SaveAgents stores the roster without credentials.
func (s *Store) SaveAgents(ctx context.Context, agents []domain.Agent) error {
	clean := make([]domain.Agent, len(agents))
	for i, agent := range agents {
		agent.PasswordHash = ""
		clean[i] = agent
	}
	return s.put(ctx, keyAgents, clean)
}

func (s *Store) LoadAgents(ctx context.Context) ([]domain.Agent, error) {
	var agents []domain.Agent
	if err := s.get(ctx, keyAgents, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (s *Store) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	if ticket == nil || ticket.ID == "" {
		return errors.New("cache: ticket without id")
	}
	return s.put(ctx, keyTicket+ticket.ID, ticket)
}

func (s *Store) LoadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := s.get(ctx, keyTicket+id, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	if s == nil || s.client == nil {
		return ErrDisabled
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, raw, s.ttl).Err()
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	if s == nil || s.client == nil {
		return ErrDisabled
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return nil
}

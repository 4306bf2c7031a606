package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/seed"
)

// DataSource names where a read was served from.
type DataSource string

const (
	SourcePostgres DataSource = "postgres"
	SourceCache    DataSource = "cache"
	SourceSeed     DataSource = "seed"
)

// Degraded reports whether the data did not come from the primary store.
func (s DataSource) Degraded() bool {
	return s != SourcePostgres
}

// SnapshotStore is the cache the catalog falls back to. *cache.Store
// implements it.
type SnapshotStore interface {
	SaveArticles(ctx context.Context, articles []domain.Article) error
	LoadArticles(ctx context.Context) ([]domain.Article, error)
	SaveAgents(ctx context.Context, agents []domain.Agent) error
	LoadAgents(ctx context.Context) ([]domain.Agent, error)
	SaveTicket(ctx context.Context, ticket *domain.Ticket) error
	LoadTicket(ctx context.Context, id string) (*domain.Ticket, error)
}

// Catalog serves the read models triage depends on. Reads never fail: they
// fall back from Postgres to the cache snapshot to the built-in seed data.
type Catalog struct {
	articles  repository.ArticleRepository
	agents    repository.AgentRepository
	snapshots SnapshotStore
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// CatalogDependencies bundles the catalog's stores.
type CatalogDependencies struct {
	ArticleRepo repository.ArticleRepository
	AgentRepo   repository.AgentRepository
	Snapshots   SnapshotStore
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

func NewCatalog(deps CatalogDependencies) *Catalog {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		articles:  deps.ArticleRepo,
		agents:    deps.AgentRepo,
		snapshots: deps.Snapshots,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Articles returns at most limit articles, most recently updated first.
func (c *Catalog) Articles(ctx context.Context, limit int) ([]domain.Article, DataSource) {
	if c.articles != nil {
		list, err := c.articles.List(ctx, limit)
		if err == nil {
			return list, SourcePostgres
		}
		c.logger.Warn("article query failed", zap.Error(err))
	}
	if c.snapshots != nil {
		list, err := c.snapshots.LoadArticles(ctx)
		if err == nil {
			c.metrics.RecordDegradedRead("articles", string(SourceCache))
			return capArticles(list, limit), SourceCache
		}
		c.logger.Debug("article snapshot unavailable", zap.Error(err))
	}
	c.metrics.RecordDegradedRead("articles", string(SourceSeed))
	return capArticles(seed.Articles(), limit), SourceSeed
}

// ActiveAgents returns the routable roster.
func (c *Catalog) ActiveAgents(ctx context.Context) ([]domain.Agent, DataSource) {
	agents, source := c.Roster(ctx)
	active := make([]domain.Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.Active() {
			active = append(active, agent)
		}
	}
	return active, source
}

// Roster returns every agent regardless of status.
func (c *Catalog) Roster(ctx context.Context) ([]domain.Agent, DataSource) {
	if c.agents != nil {
		list, err := c.agents.List(ctx, repository.AgentFilter{})
		if err == nil {
			return list, SourcePostgres
		}
		c.logger.Warn("agent query failed", zap.Error(err))
	}
	if c.snapshots != nil {
		list, err := c.snapshots.LoadAgents(ctx)
		if err == nil {
			c.metrics.RecordDegradedRead("agents", string(SourceCache))
			return list, SourceCache
		}
		c.logger.Debug("agent snapshot unavailable", zap.Error(err))
	}
	c.metrics.RecordDegradedRead("agents", string(SourceSeed))
	return seed.Agents(), SourceSeed
}

// Refresh copies the primary store into the cache snapshot. It fails when
// either side is unavailable; a stale snapshot is left in place.
func (c *Catalog) Refresh(ctx context.Context, articleLimit int) error {
	if c.articles == nil || c.agents == nil || c.snapshots == nil {
		return errors.New("catalog refresh needs repositories and a snapshot store")
	}
	articles, err := c.articles.List(ctx, articleLimit)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	agents, err := c.agents.List(ctx, repository.AgentFilter{})
	if err != nil {
		return fmt.Errorf("list agents: %w", err)
	}
	if err := c.snapshots.SaveArticles(ctx, articles); err != nil {
		return fmt.Errorf("save article snapshot: %w", err)
	}
	if err := c.snapshots.SaveAgents(ctx, agents); err != nil {
		return fmt.Errorf("save agent snapshot: %w", err)
	}
	return nil
}

// RecordViews counts articles shown to a requester. It is best effort.
func (c *Catalog) RecordViews(ctx context.Context, candidates []domain.ArticleCandidate) {
	if c.articles == nil || len(candidates) == 0 {
		return
	}
	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ArticleID)
	}
	if err := c.articles.IncrementViews(ctx, ids); err != nil {
		c.logger.Debug("article views not counted", zap.Error(err))
	}
}

func capArticles(list []domain.Article, limit int) []domain.Article {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// Command seed loads the built-in agent roster and knowledge base into Postgres.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/seed"
)

const defaultAgentPassword = "ChangeMe123!"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required to seed")
	}
	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	password := os.Getenv("SEED_AGENT_PASSWORD")
	if password == "" {
		password = defaultAgentPassword
	}
	hash, err := auth.HashPassword(password, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash agent password", zap.Error(err))
	}

	agents := repository.NewAgentRepository(pg.PoolHandle())
	for _, agent := range seed.Agents() {
		agent.PasswordHash = hash
		if err := agents.Create(ctx, &agent); err != nil {
			logger.Fatal("failed to seed agent", zap.String("email", agent.Email), zap.Error(err))
		}
	}
	logger.Info("agents seeded", zap.Int("count", len(seed.Agents())))

	articles := repository.NewArticleRepository(pg.PoolHandle())
	existing, err := articles.List(ctx, 1)
	if err != nil {
		logger.Fatal("failed to list articles", zap.Error(err))
	}
	if len(existing) > 0 {
		logger.Info("knowledge base already populated; skipping articles")
		return
	}
	for _, article := range seed.Articles() {
		if err := articles.Create(ctx, &article); err != nil {
			logger.Fatal("failed to seed article", zap.String("title", article.Title), zap.Error(err))
		}
	}
	logger.Info("articles seeded", zap.Int("count", len(seed.Articles())))
}

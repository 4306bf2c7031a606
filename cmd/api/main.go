package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/servicedesk/internal/api/http"
	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/cache"
	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/llm"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/service"
	"github.com/spec-kit/servicedesk/internal/triage"
	"github.com/spec-kit/servicedesk/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Error("postgres unavailable; serving degraded reads", zap.Error(err))
		pg = &persistence.Postgres{}
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	agentRepo := repository.NewAgentRepository(pool)
	articleRepo := repository.NewArticleRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	suggestionRepo := repository.NewKBSuggestionRepository(pool)

	snapshots := cache.NewStore(redis.Handle(), cfg.Cache.SnapshotTTL())
	conversations := cache.NewChatHistory(redis.Handle(), cfg.Chat.HistoryTTL(), cfg.Chat.HistoryLimit)

	client := newLLMClient(cfg.LLM, logger, metrics)

	taxonomy := triage.DefaultTaxonomy()
	if len(cfg.Triage.EscalationKeywords) > 0 {
		taxonomy = taxonomy.WithEscalationKeywords(cfg.Triage.EscalationKeywords)
	}
	normalizer := triage.Normalizer{
		Multiplier: cfg.Triage.ConfidenceMultiplier,
		Cap:        cfg.Triage.ConfidenceCap,
		Limit:      cfg.Triage.MaxCandidates,
	}
	categorizer := triage.NewCategorizer(triage.CategorizerConfig{
		Taxonomy:   taxonomy,
		Normalizer: normalizer,
		Thresholds: triage.Thresholds{AutoApply: cfg.Triage.AutoApplyThreshold, Suggest: cfg.Triage.SuggestThreshold},
		LLM:        client,
		LLMTimeout: cfg.LLM.Timeout(),
		Logger:     logger,
	})
	ranker := triage.NewKBRanker(triage.KBRankerConfig{
		PoolCap:     cfg.KB.CandidatePool,
		TopK:        cfg.KB.TopK,
		RerankDepth: cfg.KB.RerankDepth,
		LLM:         client,
		LLMTimeout:  cfg.LLM.Timeout(),
		Logger:      logger,
	})

	dispatcher := events.NewInMemoryDispatcher()
	catalog := service.NewCatalog(service.CatalogDependencies{
		ArticleRepo: articleRepo,
		AgentRepo:   agentRepo,
		Snapshots:   snapshots,
		Logger:      logger,
		Metrics:     metrics,
	})

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:  userRepo,
		AgentRepo: agentRepo,
	})
	triageService := service.NewTriageService(service.TriageDependencies{
		TicketRepo:       ticketRepo,
		HistoryRepo:      historyRepo,
		KBSuggestionRepo: suggestionRepo,
		AgentRepo:        agentRepo,
		Catalog:          catalog,
		Snapshots:        snapshots,
		Categorizer:      categorizer,
		Ranker:           ranker,
		Router:           triage.Router{MaxWorkload: cfg.Router.MaxWorkload},
		Dispatcher:       dispatcher,
		Logger:           logger,
		Metrics:          metrics,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		HistoryRepo: historyRepo,
		AgentRepo:   agentRepo,
		Snapshots:   snapshots,
		Catalog:     catalog,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	chatService := service.NewChatService(service.ChatDependencies{
		Conversations: conversations,
		Catalog:       catalog,
		Taxonomy:      taxonomy,
		Normalizer:    normalizer,
		Ranker:        ranker,
		Governor:      triage.NewGovernor(taxonomy, cfg.Chat.EscalationThreshold),
		Confidence:    triage.ChatConfidence{LLM: cfg.Chat.LLMConfidence, Fallback: cfg.Chat.FallbackConfidence},
		LLM:           client,
		LLMTimeout:    cfg.LLM.Timeout(),
		Dispatcher:    dispatcher,
		Logger:        logger,
		Metrics:       metrics,
	})
	reviewService := service.NewKBReviewService(service.KBReviewDependencies{
		KBSuggestionRepo: suggestionRepo,
		ArticleRepo:      articleRepo,
		Dispatcher:       dispatcher,
		Logger:           logger,
		Metrics:          metrics,
	})

	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	warmer := worker.NewCacheWarmer(catalog, cfg.Cache.WarmSchedule, cfg.KB.CandidatePool, logger)
	if err := warmer.Start(ctx); err != nil {
		logger.Fatal("failed to start cache warmer", zap.Error(err))
	}
	defer warmer.Stop()

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, agentRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService, ticketService),
		Tickets:        handlers.NewTicketsHandler(triageService, ticketService),
		Chat:           handlers.NewChatHandler(chatService),
		KB:             handlers.NewKBHandler(reviewService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// newLLMClient returns nil when no provider is configured; the engines then
// run on lexical scoring alone.
func newLLMClient(cfg config.LLMConfig, logger *zap.Logger, metrics *observability.Metrics) llm.Client {
	if !cfg.Enabled() {
		logger.Info("no llm provider configured")
		return nil
	}
	providerCfg := llm.ProviderConfig{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	var (
		completer llm.Completer
		err       error
	)
	switch cfg.Provider {
	case "anthropic":
		completer, err = llm.NewAnthropic(providerCfg)
	case "openai":
		completer, err = llm.NewOpenAI(providerCfg)
	}
	if err != nil {
		logger.Warn("llm provider disabled", zap.String("provider", cfg.Provider), zap.Error(err))
		return nil
	}
	logger.Info("llm provider configured", zap.String("provider", completer.Name()))
	return llm.NewAdapter(completer, llm.Options{
		Timeout:       cfg.Timeout(),
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
	}, logger, metrics)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

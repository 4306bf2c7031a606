package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	warmTimeout = 30 * time.Second
	stopTimeout = 5 * time.Second
)

// Refresher copies the primary store into the cache. *service.Catalog
// implements it.
type Refresher interface {
	Refresh(ctx context.Context, articleLimit int) error
}

// CacheWarmer keeps the article and agent snapshots fresh so degraded reads
// serve recent data.
type CacheWarmer struct {
	refresher    Refresher
	schedule     string
	articleLimit int
	logger       *zap.Logger

	mu   sync.Mutex
	cron *rcron.Cron
}

// NewCacheWarmer builds a warmer. schedule accepts standard five-field cron
// expressions and descriptors such as "@every 5m".
func NewCacheWarmer(refresher Refresher, schedule string, articleLimit int, logger *zap.Logger) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWarmer{
		refresher:    refresher,
		schedule:     schedule,
		articleLimit: articleLimit,
		logger:       logger,
	}
}

// RunOnce performs a single bounded refresh.
func (w *CacheWarmer) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, warmTimeout)
	defer cancel()
	start := time.Now()
	if err := w.refresher.Refresh(ctx, w.articleLimit); err != nil {
		w.logger.Warn("cache warm failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return err
	}
	w.logger.Debug("cache warmed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Start warms once, then on schedule until ctx is done or Stop is called.
// A failed first warm is logged, not returned.
func (w *CacheWarmer) Start(ctx context.Context) error {
	if w.refresher == nil {
		return errors.New("cache warmer without refresher")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return errors.New("cache warmer already started")
	}

	c := rcron.New(rcron.WithChain(rcron.SkipIfStillRunning(rcron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() { _ = w.RunOnce(ctx) }); err != nil {
		return err
	}
	_ = w.RunOnce(ctx)
	c.Start()
	w.cron = c
	w.logger.Info("cache warmer started", zap.String("schedule", w.schedule))

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits briefly for a running warm.
func (w *CacheWarmer) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-time.After(stopTimeout):
		w.logger.Warn("cache warmer stop timed out")
	}
}

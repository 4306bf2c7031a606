package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/servicedesk/internal/observability"
)

const fallbackTimeout = 8 * time.Second

// Options configures an Adapter.
type Options struct {
	// Timeout is the default per-call ceiling. Zero or negative selects 8s.
	Timeout time.Duration
	// RatePerSecond limits outbound calls. Zero disables the limiter.
	RatePerSecond float64
	Burst         int
}

// Adapter builds prompts, enforces the call budget and parses responses.
type Adapter struct {
	completer Completer
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewAdapter wraps a provider. A nil logger is replaced by a no-op logger.
func NewAdapter(completer Completer, opts Options, logger *zap.Logger, metrics *observability.Metrics) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = fallbackTimeout
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return &Adapter{
		completer: completer,
		timeout:   timeout,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Complete performs one bounded call. It never panics and never retries;
// any error is a *Failure.
func (a *Adapter) Complete(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &Failure{Kind: FailureUnavailable, Task: req.Task, Err: fmt.Errorf("provider panic: %v", r)}
		}
		a.observe(req.Task, err, time.Since(start))
	}()

	if a == nil || a.completer == nil {
		return nil, &Failure{Kind: FailureUnavailable, Task: req.Task, Err: errors.New("no provider configured")}
	}
	if a.limiter != nil && !a.limiter.Allow() {
		return nil, &Failure{Kind: FailureUnavailable, Task: req.Task, Err: errors.New("call budget exhausted")}
	}

	system, prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &Failure{Kind: FailureUnavailable, Task: req.Task, Err: err}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.timeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, callErr := a.completer.Complete(callCtx, system, prompt)
	if callErr != nil {
		return nil, &Failure{Kind: classifyCallError(callCtx, callErr), Task: req.Task, Err: callErr}
	}

	result, err = parseResult(req, raw)
	if err != nil {
		return nil, &Failure{Kind: FailureMalformed, Task: req.Task, Err: err}
	}
	result.Provider = a.completer.Name()
	result.Latency = time.Since(start)
	return result, nil
}

func (a *Adapter) observe(task TaskType, err error, elapsed time.Duration) {
	if a == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		a.logger.Warn("llm call failed",
			zap.String("task", string(task)),
			zap.String("failure", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
	}
	a.metrics.ObserveLLMCall(string(task), outcome, elapsed)
}

func classifyCallError(ctx context.Context, err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnavailable
}

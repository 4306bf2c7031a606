package triage

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/llm"
)

// ErrEmptyText is returned for tickets without any title or description.
var ErrEmptyText = errors.New("ticket text is empty")

// Decision says what the orchestrator should do with the top candidate.
type Decision string

const (
	DecisionAutoApplied    Decision = "auto_applied"
	DecisionSuggested      Decision = "suggested"
	DecisionManualRequired Decision = "manual_required"
)

// Thresholds are inclusive lower bounds on the top confidence.
type Thresholds struct {
	AutoApply float64
	Suggest   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{AutoApply: 0.8, Suggest: 0.5}
}

// Decide maps a confidence to a decision. Bounds are inclusive: exactly
// AutoApply auto-applies.
func (t Thresholds) Decide(confidence float64) Decision {
	switch {
	case confidence >= t.AutoApply:
		return DecisionAutoApplied
	case confidence >= t.Suggest:
		return DecisionSuggested
	default:
		return DecisionManualRequired
	}
}

// CategorizerConfig wires a Categorizer. Zero values select defaults; a nil
// LLM disables the model path.
type CategorizerConfig struct {
	Taxonomy   *Taxonomy
	Normalizer Normalizer
	Thresholds Thresholds
	LLM        llm.Client
	LLMTimeout time.Duration
	Logger     *zap.Logger
}

// Categorizer produces the category, priority and confidence of a ticket.
type Categorizer struct {
	taxonomy   *Taxonomy
	normalizer Normalizer
	thresholds Thresholds
	llm        llm.Client
	llmTimeout time.Duration
	logger     *zap.Logger
}

func NewCategorizer(cfg CategorizerConfig) *Categorizer {
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = DefaultTaxonomy()
	}
	if cfg.Normalizer == (Normalizer{}) {
		cfg.Normalizer = DefaultNormalizer()
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Categorizer{
		taxonomy:   cfg.Taxonomy,
		normalizer: cfg.Normalizer,
		thresholds: cfg.Thresholds,
		llm:        cfg.LLM,
		llmTimeout: cfg.LLMTimeout,
		logger:     cfg.Logger,
	}
}

// Categorization is the engine output. Category is nil when the decision is
// manual_required.
type Categorization struct {
	Category   *domain.Category
	Confidence float64
	Decision   Decision
	Source     domain.SuggestionSource
	Candidates []domain.CategorySuggestion
	Evidence   []string
	Rationale  string
	Priority   PriorityAssessment
	LLMUsed    bool
	// LLMFailure is set when the model was consulted and failed.
	LLMFailure llm.FailureKind
}

// Top returns the winning candidate, if any.
func (c Categorization) Top() (domain.CategorySuggestion, bool) {
	if len(c.Candidates) == 0 {
		return domain.CategorySuggestion{}, false
	}
	return c.Candidates[0], true
}

// Categorize never fails on model errors; the only error is empty input.
func (c *Categorizer) Categorize(ctx context.Context, text string) (Categorization, error) {
	if strings.TrimSpace(text) == "" {
		return Categorization{}, ErrEmptyText
	}

	lexical := c.normalizer.Rank(ScoreLexical(text, c.taxonomy))
	candidates := lexical
	var (
		rationale string
		used      bool
		failure   llm.FailureKind
	)
	if c.llm != nil {
		res, err := c.llm.Complete(ctx, llm.Request{
			Task:       llm.TaskCategorize,
			Text:       text,
			Categories: domain.AllCategories(),
			Timeout:    c.llmTimeout,
		})
		switch {
		case err != nil:
			failure = llm.KindOf(err)
			c.logger.Warn("categorization fell back to lexical scoring", zap.String("failure", string(failure)))
		case res == nil || res.Category == nil:
			failure = llm.FailureMalformed
		default:
			used = true
			rationale = res.Category.Rationale
			candidates = c.merge(lexical, *res.Category)
		}
	}

	out := Categorization{
		Candidates: candidates,
		Rationale:  rationale,
		Priority:   AssessPriority(text, c.taxonomy),
		LLMUsed:    used,
		LLMFailure: failure,
		Decision:   DecisionManualRequired,
		Source:     domain.SourceLexical,
	}
	if top, ok := out.Top(); ok {
		out.Confidence = top.Confidence
		out.Source = top.Source
		out.Evidence = cloneStrings(top.Evidence)
		out.Decision = c.thresholds.Decide(top.Confidence)
		if out.Decision != DecisionManualRequired {
			category := top.Category
			out.Category = &category
		}
	}
	return out, nil
}

// merge puts the model suggestion on top only when it is at least as
// confident as the best lexical candidate.
func (c *Categorizer) merge(lexical []domain.CategorySuggestion, res llm.CategoryResult) []domain.CategorySuggestion {
	suggestion := domain.CategorySuggestion{
		Category:   res.Category,
		Confidence: c.normalizer.Clamp(res.Confidence),
		Evidence:   []string{},
		Source:     domain.SourceLLM,
	}
	for _, cand := range lexical {
		if cand.Category == res.Category {
			suggestion.Evidence = cloneStrings(cand.Evidence)
		}
	}

	if len(lexical) == 0 || suggestion.Confidence >= lexical[0].Confidence {
		merged := []domain.CategorySuggestion{suggestion}
		for _, cand := range lexical {
			if cand.Category != suggestion.Category {
				merged = append(merged, cand)
			}
		}
		return c.limit(merged)
	}

	merged := make([]domain.CategorySuggestion, 0, len(lexical)+1)
	present := false
	for _, cand := range lexical {
		if cand.Category == suggestion.Category {
			present = true
		}
		merged = append(merged, cand)
	}
	if !present {
		merged = append(merged, suggestion)
		sortSuggestions(merged)
	}
	return c.limit(merged)
}

func (c *Categorizer) limit(list []domain.CategorySuggestion) []domain.CategorySuggestion {
	if c.normalizer.Limit > 0 && len(list) > c.normalizer.Limit {
		return list[:c.normalizer.Limit]
	}
	return list
}

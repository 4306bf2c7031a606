package triage

import (
	"context"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/llm"
)

const summaryRunes = 280

// KBRankerConfig bounds the ranker. Zero values select defaults.
type KBRankerConfig struct {
	PoolCap     int
	TopK        int
	RerankDepth int
	TitleWeight float64
	BodyWeight  float64
	LLM         llm.Client
	LLMTimeout  time.Duration
	Logger      *zap.Logger
}

// KBRanker scores a bounded article pool against free text.
type KBRanker struct {
	cfg KBRankerConfig
}

const (
	maxPoolCap = 100
	maxTopK    = 5
)

// NewKBRanker fills defaults and clamps PoolCap to 100 and TopK to 5.
func NewKBRanker(cfg KBRankerConfig) *KBRanker {
	if cfg.PoolCap <= 0 || cfg.PoolCap > maxPoolCap {
		cfg.PoolCap = maxPoolCap
	}
	if cfg.TopK <= 0 || cfg.TopK > maxTopK {
		cfg.TopK = maxTopK
	}
	if cfg.RerankDepth <= 0 {
		cfg.RerankDepth = 10
	}
	if cfg.TitleWeight <= 0 {
		cfg.TitleWeight = 2
	}
	if cfg.BodyWeight <= 0 {
		cfg.BodyWeight = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &KBRanker{cfg: cfg}
}

// PoolCap is the largest pool the ranker considers.
func (r *KBRanker) PoolCap() int {
	return r.cfg.PoolCap
}

// KBRanking is the ranked result. An empty Articles slice is a valid
// "nothing relevant" answer.
type KBRanking struct {
	Articles   []domain.ArticleCandidate
	PoolSize   int
	Reranked   bool
	LLMFailure llm.FailureKind
}

// Rank returns at most TopK articles from pool, highest relevance first,
// ties broken by recency then id. Articles outside pool are never returned.
func (r *KBRanker) Rank(ctx context.Context, text string, pool []domain.Article) KBRanking {
	if len(pool) > r.cfg.PoolCap {
		pool = pool[:r.cfg.PoolCap]
	}
	out := KBRanking{PoolSize: len(pool), Articles: []domain.ArticleCandidate{}}

	query := tokenize(text)
	if len(query) == 0 || len(pool) == 0 {
		return out
	}

	scored := make([]domain.ArticleCandidate, 0, len(pool))
	for _, article := range pool {
		score := r.lexicalScore(query, article)
		if score <= 0 {
			continue
		}
		scored = append(scored, domain.ArticleCandidate{
			ArticleID: article.ID,
			Title:     article.Title,
			Content:   article.Content,
			Relevance: score,
			Tags:      cloneStrings(article.Tags),
			UpdatedAt: article.UpdatedAt,
		})
	}
	sortCandidates(scored)

	if r.cfg.LLM != nil && len(scored) > 1 {
		scored, out.Reranked, out.LLMFailure = r.rerank(ctx, text, scored)
	}

	if len(scored) > r.cfg.TopK {
		scored = scored[:r.cfg.TopK]
	}
	out.Articles = scored
	return out
}

func (r *KBRanker) lexicalScore(query []string, article domain.Article) float64 {
	title := tokenSet(article.Title)
	body := tokenSet(article.Content)
	var titleHits, bodyHits int
	for _, tok := range query {
		if _, ok := title[tok]; ok {
			titleHits++
		}
		if _, ok := body[tok]; ok {
			bodyHits++
		}
	}
	if titleHits == 0 && bodyHits == 0 {
		return 0
	}
	weighted := r.cfg.TitleWeight*float64(titleHits) + r.cfg.BodyWeight*float64(bodyHits)
	ceiling := (r.cfg.TitleWeight + r.cfg.BodyWeight) * float64(len(query))
	return roundConfidence(weighted / ceiling)
}

// rerank lets the model re-score the head of the lexical list. Ids the model
// invents are ignored and unscored head entries keep their lexical score.
func (r *KBRanker) rerank(ctx context.Context, text string, scored []domain.ArticleCandidate) ([]domain.ArticleCandidate, bool, llm.FailureKind) {
	depth := r.cfg.RerankDepth
	if depth > len(scored) {
		depth = len(scored)
	}
	head := make(map[string]int, depth)
	refs := make([]llm.ArticleRef, 0, depth)
	for i := 0; i < depth; i++ {
		head[scored[i].ArticleID] = i
		refs = append(refs, llm.ArticleRef{
			ID:      scored[i].ArticleID,
			Title:   scored[i].Title,
			Summary: summarize(scored[i].Content),
		})
	}

	res, err := r.cfg.LLM.Complete(ctx, llm.Request{
		Task:     llm.TaskRankKB,
		Text:     text,
		Articles: refs,
		Timeout:  r.cfg.LLMTimeout,
	})
	if err != nil {
		kind := llm.KindOf(err)
		r.cfg.Logger.Warn("kb rerank fell back to lexical order", zap.String("failure", string(kind)))
		return scored, false, kind
	}
	if res == nil || len(res.Ranking) == 0 {
		return scored, false, llm.FailureMalformed
	}

	reranked := make([]domain.ArticleCandidate, len(scored))
	copy(reranked, scored)
	applied := false
	for _, entry := range res.Ranking {
		idx, ok := head[entry.ArticleID]
		if !ok {
			continue
		}
		reranked[idx].Relevance = roundConfidence(clampUnit(entry.Score))
		applied = true
	}
	if !applied {
		return scored, false, llm.FailureMalformed
	}

	kept := reranked[:0]
	for _, cand := range reranked {
		if cand.Relevance > 0 {
			kept = append(kept, cand)
		}
	}
	sortCandidates(kept)
	return kept, true, ""
}

func sortCandidates(list []domain.ArticleCandidate) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Relevance != list[j].Relevance {
			return list[i].Relevance > list[j].Relevance
		}
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ArticleID < list[j].ArticleID
	})
}

func summarize(content string) string {
	if utf8.RuneCountInString(content) <= summaryRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:summaryRunes]) + "..."
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/esskayesss/local-memory/internal/scoring"
	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

// RecallInput describes a recall request. Only Query is required; every
// other field narrows or tunes the search.
type RecallInput struct {
	Query string

	// Bag restricts the search to one bag. Empty searches all bags.
	Bag string

	// Kinds restricts candidates to the given kinds. Empty means all.
	Kinds []types.Kind

	// Tags is a hard filter: when non-empty, only memories sharing at
	// least one tag with it are considered at all.
	Tags []string

	// TopK overrides the result count. Zero defers to the bag's policy
	// (or the global default when searching across bags).
	TopK int

	// CandidateLimit overrides the candidate pool size. Zero defers to
	// the engine default.
	CandidateLimit int
}

// Recall embeds the query, pulls a recency-ordered candidate pool, scores
// each candidate against the query, and returns the top results ranked by
// combined score. Candidates arrive newest-first, so under a stable sort
// equal scores break toward the more recent memory.
func (e *Engine) Recall(ctx context.Context, input RecallInput) ([]types.RecallResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", storage.ErrInvalidInput)
	}

	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %w", ErrEmbeddingUnavailable, err)
	}

	bag := strings.TrimSpace(input.Bag)
	policies := make(map[string]*types.BagPolicy)

	topK := input.TopK
	if topK <= 0 {
		topK = types.DefaultTopK
		if bag != "" {
			if policy := e.policyFor(ctx, policies, bag); policy != nil {
				topK = policy.DefaultTopK
			}
		}
	}
	if topK < types.MinTopK {
		topK = types.MinTopK
	}
	if topK > types.MaxTopK {
		topK = types.MaxTopK
	}

	limit := input.CandidateLimit
	if limit <= 0 {
		limit = e.candidateLimit
	}
	if limit < topK {
		limit = topK
	}
	if limit > storage.MaxCandidateLimit {
		limit = storage.MaxCandidateLimit
	}

	now := time.Now().UTC()
	candidates, err := e.store.Candidates(ctx, storage.CandidateQuery{
		Bag:   bag,
		Kinds: input.Kinds,
		Limit: limit,
		Now:   now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	queryTags := types.NormalizeTags(input.Tags)

	scored := make([]types.RecallResult, 0, len(candidates))
	for _, cand := range candidates {
		if len(queryTags) > 0 && !scoring.TagsOverlap(queryTags, cand.Record.Tags) {
			continue
		}

		policy := e.policyFor(ctx, policies, cand.Record.Bag)
		if policy == nil {
			fallback := types.FallbackPolicy()
			policy = &fallback
		}

		breakdown := types.ScoreBreakdown{
			Similarity: scoring.CosineSimilarityWithNorm(queryVector, cand.Vector, cand.Norm),
			Recency:    scoring.RecencyBoostAt(cand.Record.CreatedAt, policy.RecencyHalfLifeDays, now),
			Importance: scoring.ImportanceBoost(cand.Record.Importance, *policy),
			Tags:       scoring.TagBoost(queryTags, cand.Record.Tags),
		}
		scored = append(scored, types.RecallResult{
			Memory:    cand.Record,
			Score:     breakdown.Similarity + breakdown.Recency + breakdown.Importance + breakdown.Tags,
			Breakdown: breakdown,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	e.stampAccessed(ctx, scored, now)

	return scored, nil
}

// policyFor returns the bag's policy, caching lookups for the duration of
// one recall. A missing or unreadable bag yields nil; the caller falls back
// to defaults so a dangling bag reference never fails a recall.
func (e *Engine) policyFor(ctx context.Context, cache map[string]*types.BagPolicy, bag string) *types.BagPolicy {
	if policy, ok := cache[bag]; ok {
		return policy
	}
	policy, err := e.store.GetBag(ctx, bag)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("recall: failed to load bag %q policy: %v", bag, err)
		}
		cache[bag] = nil
		return nil
	}
	cache[bag] = policy
	return policy
}

// stampAccessed records the access time on the returned memories. This is
// bookkeeping, not part of the result contract, so failures are logged and
// swallowed.
func (e *Engine) stampAccessed(ctx context.Context, results []types.RecallResult, now time.Time) {
	if len(results) == 0 {
		return
	}
	ids := make([]string, len(results))
	for i := range results {
		ids[i] = results[i].Memory.ID
	}
	if err := e.store.TouchAccessed(ctx, ids, now); err != nil {
		log.Printf("recall: failed to stamp access time: %v", err)
		return
	}
	for i := range results {
		at := now
		results[i].Memory.LastAccessedAt = &at
	}
}

package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/eyasluna999/wertigo/internal/api/embedding"
	"github.com/eyasluna999/wertigo/internal/types"
)

// ErrUnavailable signals that semantic ranking cannot run, either because
// the encoder is disabled or no embedding matrix is loaded. Callers fall
// through to database retrieval.
var ErrUnavailable = errors.New("semantic ranking unavailable")

// Ranker scores destinations by embedding similarity with multiplicative
// boosts for location, category, rating, and popularity.
type Ranker struct {
	logger  *slog.Logger
	encoder embedding.Encoder
	store   *embedding.Store
	matcher *Matcher
}

func NewRanker(encoder embedding.Encoder, store *embedding.Store, matcher *Matcher, logger *slog.Logger) *Ranker {
	return &Ranker{
		logger:  logger,
		encoder: encoder,
		store:   store,
		matcher: matcher,
	}
}

// Available reports whether semantic ranking can run at all.
func (r *Ranker) Available() bool {
	return r.encoder != nil && r.store != nil && r.store.Available()
}

// Rank encodes the query and scores candidates against the embedding
// matrix. When a city was detected and exact-city rows exist, only those
// rows compete; otherwise the widest related pool is scored by city tier
// and the top 2*limit enter similarity ranking. A detected category is
// enforced as a hard filter after scoring, which can return fewer than
// limit results.
func (r *Ranker) Rank(ctx context.Context, qu *types.QueryUnderstanding, destinations []types.Destination, limit int) ([]types.RankedCandidate, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}

	text := qu.CleanedQuery
	if strings.TrimSpace(text) == "" {
		text = qu.OriginalQuery
	}
	queryVec, err := r.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	pool := r.candidatePool(qu, destinations, limit)
	if len(pool) == 0 {
		return nil, nil
	}

	candidates := make([]types.RankedCandidate, 0, len(pool))
	for i := range pool {
		d := pool[i]
		vec, ok := r.store.VectorByID(d.ID)
		if !ok {
			continue
		}
		sim := embedding.Cosine(queryVec, vec)
		score := sim
		score *= locationBoost(d, qu.DetectedCity, r.matcher)
		score *= categoryBoost(d, qu.DetectedCategory)
		score *= ratingBoost(d)
		score *= popularityBoost(d)
		candidates = append(candidates, types.RankedCandidate{
			Destination: d,
			Similarity:  sim,
			Score:       score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Destination.Name < candidates[j].Destination.Name
	})

	if qu.DetectedCategory != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if hasCategory(c.Destination, qu.DetectedCategory) {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// candidatePool narrows the dataset before similarity scoring. Exact-city
// rows take absolute priority: when any exist, nothing outside that city is
// considered.
func (r *Ranker) candidatePool(qu *types.QueryUnderstanding, destinations []types.Destination, limit int) []*types.Destination {
	if qu.DetectedCity == "" {
		pool := make([]*types.Destination, len(destinations))
		for i := range destinations {
			pool[i] = &destinations[i]
		}
		return pool
	}

	var exact []*types.Destination
	for i := range destinations {
		if strings.EqualFold(destinations[i].City, qu.DetectedCity) {
			exact = append(exact, &destinations[i])
		}
	}
	if len(exact) > 0 {
		return exact
	}

	type tiered struct {
		d    *types.Destination
		tier float64
	}
	var related []tiered
	for i := range destinations {
		if tier := cityMatchTier(&destinations[i], qu.DetectedCity, r.matcher); tier > 0 {
			related = append(related, tiered{d: &destinations[i], tier: tier})
		}
	}
	sort.SliceStable(related, func(i, j int) bool { return related[i].tier > related[j].tier })
	if max := limit * 2; len(related) > max {
		related = related[:max]
	}
	pool := make([]*types.Destination, len(related))
	for i, t := range related {
		pool[i] = t.d
	}
	return pool
}

func hasCategory(d *types.Destination, category string) bool {
	for _, c := range d.Categories() {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

package recommendation

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/types"
)

const (
	partialScanRows   = 200
	sampleRows        = 100
	groupSearchRows   = 50
	fulltextFetchRows = 20
)

// Fallback strategy names, also used as metric labels.
const (
	StrategyCategoryGroup = "category_group"
	StrategyExactFilter   = "exact_filter"
	StrategyPartialCity   = "partial_city"
	StrategyRelaxedFilter = "relaxed_filter"
	StrategyFullText      = "full_text"
	StrategySample        = "sample"
)

// FallbackChain runs database retrieval strategies in a fixed order and
// stops at the first one that produces results. A strategy error is logged
// and the chain moves on; only an empty chain end returns nothing.
type FallbackChain struct {
	logger  *slog.Logger
	repo    destination.Repository
	matcher *Matcher
}

func NewFallbackChain(repo destination.Repository, matcher *Matcher, logger *slog.Logger) *FallbackChain {
	return &FallbackChain{
		logger:  logger,
		repo:    repo,
		matcher: matcher,
	}
}

// Retrieve returns ranked candidates and the name of the strategy that
// produced them.
func (f *FallbackChain) Retrieve(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, string, error) {
	ctx, span := otel.Tracer("FallbackChain").Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.String("query.city", qu.DetectedCity),
		attribute.String("query.category", qu.DetectedCategory),
	))
	defer span.End()

	strategies := []struct {
		name string
		run  func(context.Context, *types.QueryUnderstanding, int) ([]types.RankedCandidate, error)
	}{
		{StrategyCategoryGroup, f.categoryGroupSearch},
		{StrategyExactFilter, f.exactFilterSearch},
		{StrategyPartialCity, f.partialCityScan},
		{StrategyRelaxedFilter, f.relaxedFilterSearch},
		{StrategyFullText, f.fullTextSearch},
		{StrategySample, f.sampleSearch},
	}

	for _, strategy := range strategies {
		candidates, err := strategy.run(ctx, qu, limit)
		if err != nil {
			f.logger.WarnContext(ctx, "Fallback strategy failed, continuing",
				slog.String("strategy", strategy.name), slog.Any("error", err))
			continue
		}
		candidates = dedupeByID(candidates)
		if len(candidates) == 0 {
			continue
		}
		sortCandidates(candidates)
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		span.SetAttributes(attribute.String("fallback.strategy", strategy.name))
		return candidates, strategy.name, nil
	}
	return nil, "", nil
}

// categoryGroupSearch widens the detected category to its semantic group.
// The primary category weighs double; city agreement and description
// relevance push related rows up.
func (f *FallbackChain) categoryGroupSearch(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	if qu.DetectedCategory == "" {
		return nil, nil
	}
	group, ok := categoryGroups[qu.DetectedCategory]
	if !ok {
		return nil, nil
	}

	rows, err := f.repo.GetDestinationsByCategories(ctx, group, groupSearchRows)
	if err != nil {
		return nil, err
	}

	primary := group[0]
	candidates := make([]types.RankedCandidate, 0, len(rows))
	for i := range rows {
		d := &rows[i]
		score := groupSecondaryWeight
		if hasCategory(d, primary) {
			score = groupPrimaryWeight
		}
		if qu.DetectedCity != "" && strings.EqualFold(d.City, qu.DetectedCity) {
			score *= groupCityMatchBoost
		}
		score *= categoryBoost(d, qu.DetectedCategory)
		score *= ratingBoost(d)
		score += descriptionRelevance(d, qu.CleanedQuery)
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: score})
	}
	return candidates, nil
}

// exactFilterSearch queries with the detected city and category as exact
// filters.
func (f *FallbackChain) exactFilterSearch(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	if qu.DetectedCity == "" && qu.DetectedCategory == "" {
		return nil, nil
	}
	rows, err := f.repo.GetDestinations(ctx, qu.DetectedCity, qu.DetectedCategory, limit)
	if err != nil {
		return nil, err
	}
	candidates := make([]types.RankedCandidate, 0, len(rows))
	for i := range rows {
		d := &rows[i]
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: ratingBoost(d)})
	}
	return candidates, nil
}

// partialCityScan fetches a bounded sample and keeps rows with any city
// relation to the detected city, scored by tier.
func (f *FallbackChain) partialCityScan(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	if qu.DetectedCity == "" {
		return nil, nil
	}
	rows, err := f.repo.SampleDestinations(ctx, partialScanRows)
	if err != nil {
		return nil, err
	}
	candidates := make([]types.RankedCandidate, 0, limit)
	for i := range rows {
		d := &rows[i]
		tier := cityMatchTier(d, qu.DetectedCity, f.matcher)
		if tier <= 0 {
			continue
		}
		score := tier
		score *= categoryBoost(d, qu.DetectedCategory)
		score *= ratingBoost(d)
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: score})
	}
	return candidates, nil
}

// relaxedFilterSearch drops one filter at a time: city alone first, then
// category alone.
func (f *FallbackChain) relaxedFilterSearch(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	if qu.DetectedCity != "" {
		rows, err := f.repo.GetDestinations(ctx, qu.DetectedCity, "", limit)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return plainCandidates(rows), nil
		}
	}
	if qu.DetectedCategory != "" {
		rows, err := f.repo.GetDestinations(ctx, "", qu.DetectedCategory, limit)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return plainCandidates(rows), nil
		}
	}
	return nil, nil
}

// fullTextSearch hands the city-prefixed query to the database full-text
// index and rescores the hits with location and category multipliers.
func (f *FallbackChain) fullTextSearch(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	text := strings.TrimSpace(qu.DetectedCity + " " + qu.CleanedQuery)
	if text == "" {
		return nil, nil
	}
	results, err := f.repo.SearchDestinations(ctx, text, fulltextFetchRows)
	if err != nil {
		return nil, err
	}
	candidates := make([]types.RankedCandidate, 0, len(results))
	for i := range results {
		d := &results[i].Destination
		score := results[i].Rank
		if qu.DetectedCity != "" {
			cityLower := strings.ToLower(qu.DetectedCity)
			destCityLower := strings.ToLower(d.City)
			switch {
			case destCityLower == cityLower:
				score *= fulltextExactCityBoost
			case strings.Contains(destCityLower, cityLower) || strings.Contains(cityLower, destCityLower):
				score *= fulltextPartialCityBoost
			case strings.Contains(strings.ToLower(d.Province), cityLower):
				score *= fulltextProvinceBoost
			}
		}
		score *= categoryBoost(d, qu.DetectedCategory)
		score *= ratingBoost(d)
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: score})
	}
	return candidates, nil
}

// sampleSearch is the last resort: a small unfiltered batch so the user
// gets something to react to rather than an empty screen. With a city
// detected the batch is ordered by city-match tier; otherwise the scores
// decrease with position so retrieval order survives the final sort.
func (f *FallbackChain) sampleSearch(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, error) {
	rows, err := f.repo.SampleDestinations(ctx, sampleRows)
	if err != nil {
		return nil, err
	}
	candidates := make([]types.RankedCandidate, 0, len(rows))
	for i := range rows {
		d := &rows[i]
		score := float64(len(rows) - i)
		if qu.DetectedCity != "" {
			score = cityMatchTier(d, qu.DetectedCity, f.matcher)
		}
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: score})
	}
	return candidates, nil
}

func plainCandidates(rows []types.Destination) []types.RankedCandidate {
	candidates := make([]types.RankedCandidate, 0, len(rows))
	for i := range rows {
		d := &rows[i]
		candidates = append(candidates, types.RankedCandidate{Destination: d, Score: ratingBoost(d)})
	}
	return candidates
}

// dedupeByID keeps a single candidate per destination ID, retaining the
// highest score.
func dedupeByID(candidates []types.RankedCandidate) []types.RankedCandidate {
	if len(candidates) == 0 {
		return candidates
	}
	best := make(map[string]int, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		key := c.Destination.ID.String()
		if idx, seen := best[key]; seen {
			if c.Score > out[idx].Score {
				out[idx] = c
			}
			continue
		}
		best[key] = len(out)
		out = append(out, c)
	}
	return out
}

func sortCandidates(candidates []types.RankedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Destination.Name < candidates[j].Destination.Name
	})
}

package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/eyasluna999/wertigo/app/observability/metrics"
	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/api/knowledge"
	"github.com/eyasluna999/wertigo/internal/types"
)

// ErrEmptyQuery is returned when the request query is blank after trimming.
var ErrEmptyQuery = errors.New("query must not be empty")

// StrategySemantic labels results produced by the embedding ranker rather
// than the fallback chain.
const StrategySemantic = "semantic"

const (
	defaultRating     = 3
	citySampleSize    = 5
	maxFollowUps      = 3
	budgetBufferRatio = 1.1
)

var (
	greetingRe = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|yo|good\s+(morning|afternoon|evening)|kumusta|musta)\b[\s!.,]*$`)
	thanksRe   = regexp.MustCompile(`(?i)^\s*(thank you|thanks|salamat)\b`)
	helpRe     = regexp.MustCompile(`(?i)^\s*(help|what can you do|how does this work)\b`)
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error)
	LoadDataset(ctx context.Context) error
	DatasetSize() int
}

// ServiceImpl wires the extraction, ranking, fallback, and context layers
// into the recommend operation.
type ServiceImpl struct {
	logger      *slog.Logger
	repo        destination.Repository
	datasetInfo destination.Service
	extractor   *Extractor
	matcher     *Matcher
	ranker      *Ranker
	fallback    *FallbackChain
	knowledge   *knowledge.Store

	defaultLimit int
	maxLimit     int

	mu      sync.RWMutex
	dataset []types.Destination
}

func NewServiceImpl(
	repo destination.Repository,
	datasetInfo destination.Service,
	extractor *Extractor,
	matcher *Matcher,
	ranker *Ranker,
	fallback *FallbackChain,
	store *knowledge.Store,
	defaultLimit, maxLimit int,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		datasetInfo:  datasetInfo,
		extractor:    extractor,
		matcher:      matcher,
		ranker:       ranker,
		fallback:     fallback,
		knowledge:    store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// LoadDataset pulls every destination into memory for the semantic ranker.
// Called at startup and after dataset reloads.
func (s *ServiceImpl) LoadDataset(ctx context.Context) error {
	rows, err := s.repo.GetAllDestinations(ctx)
	if err != nil {
		return fmt.Errorf("loading destination dataset: %w", err)
	}
	s.mu.Lock()
	s.dataset = rows
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Destination dataset loaded", slog.Int("rows", len(rows)))
	return nil
}

// DatasetSize returns the number of destinations loaded in memory.
func (s *ServiceImpl) DatasetSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dataset)
}

// Recommend is the main pipeline: understand the query, pick a retrieval
// path, filter, and assemble the response with conversation context.
func (s *ServiceImpl) Recommend(ctx context.Context, req types.RecommendRequest) (*types.RecommendResponse, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Recommend", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		m := metrics.Get()
		m.RecommendRequestsTotal.Add(ctx, 1)
		m.RecommendDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	limit := s.clampLimit(req.Limit)
	ratingFilter := normalizeRatingFilter(req.Rating)

	if resp := s.handleConversation(query); resp != nil {
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	// Rating filters and custom limits change the result set, so only the
	// plain request shape is served from and written to the query cache.
	cacheable := ratingFilter == 0 && limit == s.defaultLimit
	if cacheable {
		if cached := s.lookupCache(query); cached != nil {
			metrics.Get().QueryCacheHitsTotal.Add(ctx, 1)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	cities, err := s.datasetInfo.GetCities(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load cities")
		return nil, fmt.Errorf("loading known cities: %w", err)
	}
	categories, err := s.datasetInfo.GetCategories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load categories")
		return nil, fmt.Errorf("loading known categories: %w", err)
	}

	qu := s.extractor.Extract(query, cities, categories)
	s.applySessionContext(req.SessionID, &qu)

	availability := s.validateAgainstDataset(ctx, &qu, cities, categories)

	if !qu.HasFilters() {
		resp := s.promptForFilters(cities, categories)
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	if availability != nil && availability.CityExists != nil && !*availability.CityExists {
		resp := s.unknownCityResponse(&qu, cities, availability)
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	if availability != nil && availability.CategoryExists != nil && !*availability.CategoryExists {
		resp := s.unknownCategoryResponse(&qu, categories, availability)
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	// A valid city and category with zero rows for the pair gets an
	// availability answer, not other cities' rows under a success message.
	if availability != nil && availability.CombinationExists != nil && !*availability.CombinationExists {
		resp := s.missingCombinationResponse(ctx, &qu, availability)
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	candidates, strategy := s.retrieve(ctx, &qu, limit)
	span.SetAttributes(attribute.String("retrieval.strategy", strategy))

	candidates = applyBudgetFilter(candidates, &qu, query)

	resp := &types.RecommendResponse{
		DetectedCity:       qu.DetectedCity,
		DetectedCategory:   qu.DetectedCategory,
		QueryUnderstanding: &qu,
		DataAvailability:   availability,
	}

	if ratingFilter > 0 {
		kept := candidates[:0]
		for _, c := range candidates {
			if formatRating(c.Destination.Rating) >= ratingFilter {
				kept = append(kept, c)
			}
		}
		resp.RatingFilterApplied = ratingFilter
		if len(kept) == 0 && len(candidates) > 0 {
			resp.Message = fmt.Sprintf("No destinations matched your %d+ star rating filter. Try lowering the rating or broadening the search.", ratingFilter)
			resp.FilterMessage = fmt.Sprintf("Rating filter of %d+ stars removed all %d results.", ratingFilter, len(candidates))
			s.recordTurn(req.SessionID, query, resp)
			return resp, nil
		}
		resp.FilterMessage = fmt.Sprintf("Showing destinations rated %d+ stars.", ratingFilter)
		candidates = kept
	}

	if len(candidates) == 0 {
		resp.Message = s.noResultsMessage(&qu, cities)
		resp.AvailableCities = sampleValues(cities, citySampleSize)
		resp.AvailableCategories = sampleValues(categories, citySampleSize)
		s.recordTurn(req.SessionID, query, resp)
		return resp, nil
	}

	for _, c := range candidates {
		resp.Recommendations = append(resp.Recommendations, toRecommendation(c.Destination))
	}
	resp.Message = resultsMessage(&qu, len(resp.Recommendations))
	resp.FollowUpSuggestions = s.buildFollowUps(&qu, categories)

	if cacheable {
		s.knowledge.RecordQuery(req.SessionID, query, resp)
	}
	s.rememberFilters(req.SessionID, &qu)
	s.recordTurn(req.SessionID, query, resp)
	return resp, nil
}

// retrieve tries semantic ranking first and falls back to the database
// strategy chain. Retrieval never fails the request; worst case it returns
// nothing and the caller reports no results.
func (s *ServiceImpl) retrieve(ctx context.Context, qu *types.QueryUnderstanding, limit int) ([]types.RankedCandidate, string) {
	s.mu.RLock()
	dataset := s.dataset
	s.mu.RUnlock()

	candidates, err := s.ranker.Rank(ctx, qu, dataset, limit)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			metrics.Get().SemanticRankUnavailable.Add(ctx, 1)
		} else {
			s.logger.WarnContext(ctx, "Semantic ranking failed, falling back", slog.Any("error", err))
		}
	}
	if err == nil && len(candidates) > 0 {
		return candidates, StrategySemantic
	}

	candidates, strategy, err := s.fallback.Retrieve(ctx, qu, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "Fallback retrieval failed", slog.Any("error", err))
		return nil, ""
	}
	if strategy != "" {
		metrics.Get().FallbackStrategyTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("strategy", strategy),
		))
	}
	return candidates, strategy
}

// handleConversation intercepts small talk before the pipeline runs.
func (s *ServiceImpl) handleConversation(query string) *types.RecommendResponse {
	switch {
	case greetingRe.MatchString(query):
		return &types.RecommendResponse{
			IsConversation: true,
			Message:        "Hello! I can help you discover places to visit in Cavite. Ask me about restaurants, beaches, historical sites, and more.",
			FollowUpSuggestions: []string{
				"Show me cafes in Tagaytay",
				"Historical sites in Kawit",
				"Beach resorts in Ternate",
			},
		}
	case thanksRe.MatchString(query):
		return &types.RecommendResponse{
			IsConversation: true,
			Message:        "You're welcome! Let me know if you want more recommendations.",
		}
	case helpRe.MatchString(query):
		return &types.RecommendResponse{
			IsConversation: true,
			Message:        "Tell me what you're looking for and where, like \"affordable restaurants in Imus\" or \"nature spots near Maragondon\". You can also filter by rating or budget.",
			FollowUpSuggestions: []string{
				"Restaurants in Imus under 500 pesos",
				"Nature spots in Maragondon",
			},
		}
	}
	return nil
}

func (s *ServiceImpl) lookupCache(query string) *types.RecommendResponse {
	if cached := s.knowledge.GetCachedResult(query); cached != nil {
		return cached
	}
	return s.knowledge.FindSimilarCached(query, knowledge.DefaultSimilarityThreshold)
}

// applySessionContext fills a missing city or category from the session's
// short-term memory so follow-up queries like "how about restaurants?" stay
// anchored. The last explicitly used value wins over accumulated result
// preferences.
func (s *ServiceImpl) applySessionContext(sessionID string, qu *types.QueryUnderstanding) {
	if sessionID == "" {
		return
	}
	values := s.knowledge.GetSessionContext(sessionID)
	if qu.DetectedCity == "" {
		if lastCity, ok := values["last_city"].(string); ok && lastCity != "" {
			qu.DetectedCity = lastCity
		} else if preferred := s.knowledge.PreferredCities(sessionID, 1); len(preferred) > 0 {
			qu.DetectedCity = preferred[0]
		}
	}
	if qu.DetectedCategory == "" {
		if lastCategory, ok := values["last_category"].(string); ok && lastCategory != "" {
			qu.DetectedCategory = lastCategory
		} else if preferred := s.knowledge.PreferredCategories(sessionID, 1); len(preferred) > 0 {
			qu.DetectedCategory = preferred[0]
		}
	}
}

// validateAgainstDataset resolves the detected values to canonical dataset
// values and reports what exists. A detected value that cannot be resolved
// is left in place for messaging but flagged as missing.
func (s *ServiceImpl) validateAgainstDataset(ctx context.Context, qu *types.QueryUnderstanding, cities, categories []string) *types.DataAvailability {
	if qu.DetectedCity == "" && qu.DetectedCategory == "" {
		return nil
	}
	availability := &types.DataAvailability{}

	if qu.DetectedCity != "" {
		matched := s.matcher.MatchCity(qu.DetectedCity, cities)
		exists := matched != ""
		if exists {
			qu.DetectedCity = matched
		}
		availability.CityExists = &exists
	}
	if qu.DetectedCategory != "" {
		matched := s.matcher.MatchCategory(qu.DetectedCategory, categories)
		exists := matched != ""
		if exists {
			qu.DetectedCategory = matched
		}
		availability.CategoryExists = &exists
	}
	if qu.DetectedCity != "" && qu.DetectedCategory != "" &&
		availability.CityExists != nil && *availability.CityExists &&
		availability.CategoryExists != nil && *availability.CategoryExists {
		rows, err := s.repo.GetDestinations(ctx, qu.DetectedCity, qu.DetectedCategory, 1)
		if err != nil {
			s.logger.WarnContext(ctx, "Combination availability check failed", slog.Any("error", err))
		} else {
			exists := len(rows) > 0
			availability.CombinationExists = &exists
		}
	}
	return availability
}

func (s *ServiceImpl) promptForFilters(cities, categories []string) *types.RecommendResponse {
	return &types.RecommendResponse{
		IsConversation:      true,
		Message:             fmt.Sprintf("I couldn't work out a place or type of destination from that. Try mentioning a city like %s, or a category like %s.", joinSample(cities, citySampleSize), joinSample(categories, citySampleSize)),
		AvailableCities:     sampleValues(cities, citySampleSize),
		AvailableCategories: sampleValues(categories, citySampleSize),
	}
}

func (s *ServiceImpl) unknownCityResponse(qu *types.QueryUnderstanding, cities []string, availability *types.DataAvailability) *types.RecommendResponse {
	return &types.RecommendResponse{
		Message:            fmt.Sprintf("I don't have destinations for %q. Cities I know include %s.", qu.DetectedCity, joinSample(cities, citySampleSize)),
		DetectedCity:       qu.DetectedCity,
		DetectedCategory:   qu.DetectedCategory,
		QueryUnderstanding: qu,
		DataAvailability:   availability,
		AvailableCities:    sampleValues(cities, citySampleSize),
	}
}

func (s *ServiceImpl) unknownCategoryResponse(qu *types.QueryUnderstanding, categories []string, availability *types.DataAvailability) *types.RecommendResponse {
	return &types.RecommendResponse{
		Message:             fmt.Sprintf("I don't have %q destinations. Categories I know include %s.", qu.DetectedCategory, joinSample(categories, citySampleSize)),
		DetectedCity:        qu.DetectedCity,
		DetectedCategory:    qu.DetectedCategory,
		QueryUnderstanding:  qu,
		DataAvailability:    availability,
		AvailableCategories: sampleValues(categories, citySampleSize),
	}
}

func (s *ServiceImpl) missingCombinationResponse(ctx context.Context, qu *types.QueryUnderstanding, availability *types.DataAvailability) *types.RecommendResponse {
	resp := &types.RecommendResponse{
		Message:            fmt.Sprintf("%s has no %s spots in our data.", qu.DetectedCity, strings.ToLower(qu.DetectedCategory)),
		DetectedCity:       qu.DetectedCity,
		DetectedCategory:   qu.DetectedCategory,
		QueryUnderstanding: qu,
		DataAvailability:   availability,
	}
	if inCity := s.categoriesInCity(ctx, qu.DetectedCity); len(inCity) > 0 {
		resp.AvailableCategories = sampleValues(inCity, citySampleSize)
		resp.Message = fmt.Sprintf("%s has no %s spots in our data. Categories available in %s: %s.",
			qu.DetectedCity, strings.ToLower(qu.DetectedCategory), qu.DetectedCity, joinSample(inCity, citySampleSize))
	}
	return resp
}

// categoriesInCity lists the distinct categories the dataset has for one
// city, for the availability message. Best effort; an error yields nil.
func (s *ServiceImpl) categoriesInCity(ctx context.Context, city string) []string {
	pairs, err := s.repo.GetCityCategoryPairs(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not list categories for city",
			slog.String("city", city), slog.Any("error", err))
		return nil
	}
	seen := make(map[string]struct{})
	var categories []string
	for _, p := range pairs {
		if !strings.EqualFold(p.City, city) {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

func (s *ServiceImpl) noResultsMessage(qu *types.QueryUnderstanding, cities []string) string {
	switch {
	case qu.DetectedCity != "" && qu.DetectedCategory != "":
		return fmt.Sprintf("I couldn't find %s destinations in %s. Try a nearby city or a related category.", qu.DetectedCategory, qu.DetectedCity)
	case qu.DetectedCity != "":
		return fmt.Sprintf("I couldn't find destinations in %s right now.", qu.DetectedCity)
	case qu.DetectedCategory != "":
		return fmt.Sprintf("I couldn't find %s destinations matching your query.", qu.DetectedCategory)
	}
	return fmt.Sprintf("I couldn't find matching destinations. Cities I know include %s.", joinSample(cities, citySampleSize))
}

func (s *ServiceImpl) buildFollowUps(qu *types.QueryUnderstanding, categories []string) []string {
	var followUps []string
	if qu.DetectedCity != "" {
		if !strings.EqualFold(qu.DetectedCategory, "Restaurant") {
			followUps = append(followUps, fmt.Sprintf("Show me restaurants in %s", qu.DetectedCity))
		}
		if !strings.EqualFold(qu.DetectedCategory, "Natural Attraction") {
			followUps = append(followUps, fmt.Sprintf("What natural attractions are in %s?", qu.DetectedCity))
		}
		followUps = append(followUps, fmt.Sprintf("Plan a trip to %s", qu.DetectedCity))
	} else if qu.DetectedCategory != "" {
		followUps = append(followUps, fmt.Sprintf("Where in Cavite has the best %s options?", strings.ToLower(qu.DetectedCategory)))
	}
	if len(followUps) > maxFollowUps {
		followUps = followUps[:maxFollowUps]
	}
	return followUps
}

func (s *ServiceImpl) rememberFilters(sessionID string, qu *types.QueryUnderstanding) {
	if sessionID == "" {
		return
	}
	values := map[string]any{}
	if qu.DetectedCity != "" {
		values["last_city"] = qu.DetectedCity
	}
	if qu.DetectedCategory != "" {
		values["last_category"] = qu.DetectedCategory
	}
	if len(values) > 0 {
		s.knowledge.UpdateSessionContext(sessionID, values)
	}
}

func (s *ServiceImpl) recordTurn(sessionID, query string, resp *types.RecommendResponse) {
	if sessionID == "" {
		return
	}
	var sentiment *float64
	if resp.QueryUnderstanding != nil {
		sentiment = resp.QueryUnderstanding.Sentiment
	}
	s.knowledge.AddConversationTurn(sessionID, query, resp.Message, sentiment)
}

func (s *ServiceImpl) clampLimit(limit int) int {
	if limit == 0 {
		return s.defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// normalizeRatingFilter maps out-of-range filters onto the 1..5 star scale.
// Values above 5 are treated as a 10-point scale and halved.
func normalizeRatingFilter(rating int) int {
	if rating <= 0 {
		return 0
	}
	if rating > 5 {
		rating = rating / 2
	}
	if rating > 5 {
		rating = 5
	}
	if rating < 1 {
		rating = 1
	}
	return rating
}

// applyBudgetFilter drops candidates above the stated budget. Strict
// phrasing ("under", "below", "less than") enforces the amount exactly;
// otherwise a 10% buffer applies. Rows without a numeric budget are dropped
// when any budget was stated.
func applyBudgetFilter(candidates []types.RankedCandidate, qu *types.QueryUnderstanding, query string) []types.RankedCandidate {
	if qu.BudgetAmount == nil {
		return candidates
	}
	maxAmount := float64(*qu.BudgetAmount)
	if !IsStrictBudget(query) {
		maxAmount *= budgetBufferRatio
	}
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Destination.BudgetAmount != nil && *c.Destination.BudgetAmount <= maxAmount {
			kept = append(kept, c)
		}
	}
	return kept
}

// formatRating collapses a float rating onto the 1..5 integer scale shown
// to clients. Ratings on a 10-point scale are halved; missing ratings
// default to 3.
func formatRating(rating *float64) int {
	if rating == nil {
		return defaultRating
	}
	r := *rating
	if r > 5 {
		r *= 0.5
	}
	if r < 1 {
		r = 1
	}
	if r > 5 {
		r = 5
	}
	return int(math.Round(r))
}

func toRecommendation(d *types.Destination) types.Recommendation {
	rec := types.Recommendation{
		ID:                 d.ID,
		Name:               d.Name,
		City:               d.City,
		Province:           d.Province,
		Category:           d.Category,
		Description:        d.Description,
		Rating:             formatRating(d.Rating),
		Budget:             d.Budget,
		Latitude:           d.Latitude,
		Longitude:          d.Longitude,
		OperatingHours:     d.OperatingHours,
		ContactInformation: d.ContactInformation,
		Metadata:           d.Metadata,
	}
	if d.PopularityScore != nil {
		rec.PopularityScore = *d.PopularityScore
	}
	return rec
}

func resultsMessage(qu *types.QueryUnderstanding, count int) string {
	switch {
	case qu.DetectedCity != "" && qu.DetectedCategory != "":
		return fmt.Sprintf("Here are %d %s spots in %s.", count, strings.ToLower(qu.DetectedCategory), qu.DetectedCity)
	case qu.DetectedCity != "":
		return fmt.Sprintf("Here are %d places to check out in %s.", count, qu.DetectedCity)
	case qu.DetectedCategory != "":
		return fmt.Sprintf("Here are %d %s recommendations.", count, strings.ToLower(qu.DetectedCategory))
	}
	return fmt.Sprintf("Here are %d places I found for you.", count)
}

// sampleValues returns up to n values, appending "..." when truncated.
func sampleValues(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	out := make([]string, 0, n+1)
	out = append(out, values[:n]...)
	out = append(out, "...")
	return out
}

func joinSample(values []string, n int) string {
	return strings.Join(sampleValues(values, n), ", ")
}

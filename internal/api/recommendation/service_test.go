package recommendation

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eyasluna999/wertigo/app/observability/metrics"
	"github.com/eyasluna999/wertigo/internal/api/destination"
	"github.com/eyasluna999/wertigo/internal/api/embedding"
	"github.com/eyasluna999/wertigo/internal/api/knowledge"
	"github.com/eyasluna999/wertigo/internal/types"
)

func TestMain(m *testing.M) {
	metrics.InitAppMetrics()
	os.Exit(m.Run())
}

type MockDatasetService struct {
	mock.Mock
}

var _ destination.Service = (*MockDatasetService)(nil)

func (m *MockDatasetService) GetCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatasetService) GetCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatasetService) GetDatasetInfo(ctx context.Context) (*types.DatasetInfo, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*types.DatasetInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatasetService) GetDestinationByID(ctx context.Context, id uuid.UUID) (*types.Destination, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*types.Destination), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDatasetService) InvalidateCache() {
	m.Called()
}

func newTestService(repo *MockDestinationRepository, ds *MockDatasetService) *ServiceImpl {
	logger := slog.Default()
	matcher := NewMatcher()
	ranker := NewRanker(nil, embedding.NewStore(), matcher, logger)
	chain := NewFallbackChain(repo, matcher, logger)
	store := knowledge.NewStore(16, time.Hour, time.Hour, logger)
	return NewServiceImpl(repo, ds, NewExtractor(logger), matcher, ranker, chain, store, 5, 20, logger)
}

func TestRecommendEmptyQuery(t *testing.T) {
	s := newTestService(new(MockDestinationRepository), new(MockDatasetService))

	_, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRecommendGreeting(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "Hello!", SessionID: "s1"})
	require.NoError(t, err)

	assert.True(t, resp.IsConversation)
	assert.NotEmpty(t, resp.Message)
	assert.Len(t, resp.FollowUpSuggestions, 3)
	repo.AssertExpectations(t)
	ds.AssertExpectations(t)
}

func TestRecommendPromptsWhenNothingDetected(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Imus", "Tagaytay"}, nil).Once()
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe", "Restaurant"}, nil).Once()
	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "surprise me"})
	require.NoError(t, err)

	assert.True(t, resp.IsConversation)
	assert.Contains(t, resp.Message, "Try mentioning a city")
	assert.Equal(t, []string{"Imus", "Tagaytay"}, resp.AvailableCities)
	repo.AssertExpectations(t)
	ds.AssertExpectations(t)
}

func TestRecommendServesAndCachesResults(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Imus", "Tagaytay"}, nil).Once()
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe", "Restaurant"}, nil).Once()

	rows := []types.Destination{
		testDestination("Bag of Beans", "Tagaytay", "Cafe", 4.5),
		testDestination("Cafe Voila", "Tagaytay", "Cafe", 4.0),
	}
	repo.On("GetDestinations", mock.Anything, "Tagaytay", "Cafe", 1).
		Return(rows[:1], nil).Once()
	repo.On("GetDestinationsByCategories", mock.Anything, []string{"Cafe", "Café/Restaurant", "Restaurant"}, groupSearchRows).
		Return(rows, nil).Once()

	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "cafes in Tagaytay"})
	require.NoError(t, err)

	assert.Equal(t, "Tagaytay", resp.DetectedCity)
	assert.Equal(t, "Cafe", resp.DetectedCategory)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Here are 2 cafe spots in Tagaytay.", resp.Message)
	assert.Len(t, resp.FollowUpSuggestions, 3)
	require.NotNil(t, resp.DataAvailability)
	require.NotNil(t, resp.DataAvailability.CombinationExists)
	assert.True(t, *resp.DataAvailability.CombinationExists)

	// every mock is Once, so a second identical request must come from the cache
	cached, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "cafes in Tagaytay"})
	require.NoError(t, err)
	assert.Equal(t, resp.Recommendations, cached.Recommendations)

	repo.AssertExpectations(t)
	ds.AssertExpectations(t)
}

func TestRecommendRatingFilter(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Tagaytay"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe"}, nil)

	rows := []types.Destination{
		testDestination("Bag of Beans", "Tagaytay", "Cafe", 4.5),
		testDestination("Roadside Brew", "Tagaytay", "Cafe", 2.0),
	}
	repo.On("GetDestinations", mock.Anything, "Tagaytay", "Cafe", 1).Return(rows[:1], nil)
	repo.On("GetDestinationsByCategories", mock.Anything, mock.Anything, groupSearchRows).Return(rows, nil)

	s := newTestService(repo, ds)

	// 8 on a 10-point scale normalizes to 4 stars
	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "cafes in Tagaytay", Rating: 8})
	require.NoError(t, err)

	assert.Equal(t, 4, resp.RatingFilterApplied)
	assert.Equal(t, "Showing destinations rated 4+ stars.", resp.FilterMessage)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "Bag of Beans", resp.Recommendations[0].Name)
}

func TestRecommendRatingFilterRemovesEverything(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Tagaytay"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe"}, nil)

	rows := []types.Destination{testDestination("Roadside Brew", "Tagaytay", "Cafe", 2.0)}
	repo.On("GetDestinations", mock.Anything, "Tagaytay", "Cafe", 1).Return(rows, nil)
	repo.On("GetDestinationsByCategories", mock.Anything, mock.Anything, groupSearchRows).Return(rows, nil)

	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "cafes in Tagaytay", Rating: 5})
	require.NoError(t, err)

	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, "rating filter")
	assert.Contains(t, resp.FilterMessage, "removed all 1 results")
}

func TestRecommendUsesSessionCity(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Imus", "Tagaytay"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe", "Restaurant"}, nil)

	rows := []types.Destination{testDestination("Casa Margarita", "Tagaytay", "Restaurant", 4.2)}
	repo.On("GetDestinations", mock.Anything, "Tagaytay", "Restaurant", 1).Return(rows, nil)
	repo.On("GetDestinationsByCategories", mock.Anything, []string{"Restaurant", "Café/Restaurant", "Food Shop"}, groupSearchRows).
		Return(rows, nil)

	s := newTestService(repo, ds)
	s.knowledge.InitSession("s1")
	s.knowledge.UpdateSessionContext("s1", map[string]any{"last_city": "Tagaytay"})

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "any good restaurants?", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "Tagaytay", resp.DetectedCity)
	require.NotEmpty(t, resp.Recommendations)
}

func TestRecommendUnknownSessionCity(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Imus", "Tagaytay"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Cafe", "Restaurant"}, nil)

	s := newTestService(repo, ds)
	s.knowledge.InitSession("s1")
	s.knowledge.UpdateSessionContext("s1", map[string]any{"last_city": "Baguio"})

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "any good restaurants?", SessionID: "s1"})
	require.NoError(t, err)

	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, `don't have destinations for "Baguio"`)
	require.NotNil(t, resp.DataAvailability)
	require.NotNil(t, resp.DataAvailability.CityExists)
	assert.False(t, *resp.DataAvailability.CityExists)
	repo.AssertExpectations(t)
}

func TestRecommendUsesSessionCategory(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Ternate"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Beach"}, nil)

	rows := []types.Destination{testDestination("Caylabne Bay", "Ternate", "Beach", 4.3)}
	repo.On("GetDestinations", mock.Anything, "Ternate", "Beach", 1).Return(rows, nil)
	repo.On("GetDestinationsByCategories", mock.Anything, []string{"Beach", "Beach Resort", "Natural Attraction"}, groupSearchRows).
		Return(rows, nil)

	s := newTestService(repo, ds)
	s.knowledge.InitSession("s1")
	s.knowledge.UpdateSessionContext("s1", map[string]any{"last_category": "Beach"})

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "places in Ternate", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "Beach", resp.DetectedCategory)
	require.NotEmpty(t, resp.Recommendations)
}

func TestRecommendMissingCombination(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Imus", "Tagaytay"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Beach", "Cafe"}, nil)

	// Imus and Beach both exist, but no Imus beach rows
	repo.On("GetDestinations", mock.Anything, "Imus", "Beach", 1).Return(nil, nil).Once()
	repo.On("GetCityCategoryPairs", mock.Anything).Return([]types.CityCategoryCount{
		{City: "Imus", Category: "Cafe", Count: 4},
		{City: "Tagaytay", Category: "Beach", Count: 2},
	}, nil).Once()

	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "beaches in Imus"})
	require.NoError(t, err)

	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, "Imus has no beach spots")
	assert.Contains(t, resp.Message, "Cafe")
	assert.Equal(t, []string{"Cafe"}, resp.AvailableCategories)
	require.NotNil(t, resp.DataAvailability)
	require.NotNil(t, resp.DataAvailability.CombinationExists)
	assert.False(t, *resp.DataAvailability.CombinationExists)
	// no retrieval strategy may run once the combination is known to be empty
	repo.AssertExpectations(t)
	ds.AssertExpectations(t)
}

func TestRecommendUnknownSessionCategory(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Ternate"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Beach"}, nil)

	s := newTestService(repo, ds)
	s.knowledge.InitSession("s1")
	s.knowledge.UpdateSessionContext("s1", map[string]any{"last_category": "Ski Resort"})

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "places in Ternate", SessionID: "s1"})
	require.NoError(t, err)

	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, `don't have "Ski Resort" destinations`)
	assert.Equal(t, []string{"Beach"}, resp.AvailableCategories)
	require.NotNil(t, resp.DataAvailability)
	require.NotNil(t, resp.DataAvailability.CategoryExists)
	assert.False(t, *resp.DataAvailability.CategoryExists)
	repo.AssertExpectations(t)
}

func TestRecommendUnknownCity(t *testing.T) {
	repo := new(MockDestinationRepository)
	ds := new(MockDatasetService)
	ds.On("GetCities", mock.Anything).Return([]string{"Ternate", "Kawit"}, nil)
	ds.On("GetCategories", mock.Anything).Return([]string{"Beach"}, nil)

	s := newTestService(repo, ds)

	resp, err := s.Recommend(context.Background(), types.RecommendRequest{Query: "beaches in Paris"})
	require.NoError(t, err)

	assert.Empty(t, resp.Recommendations)
	assert.Contains(t, resp.Message, `"Paris"`)
	assert.Equal(t, []string{"Ternate", "Kawit"}, resp.AvailableCities)
	repo.AssertExpectations(t)
}

func TestClampLimit(t *testing.T) {
	s := &ServiceImpl{defaultLimit: 5, maxLimit: 20}

	assert.Equal(t, 5, s.clampLimit(0))
	assert.Equal(t, 1, s.clampLimit(-3))
	assert.Equal(t, 7, s.clampLimit(7))
	assert.Equal(t, 20, s.clampLimit(50))
}

func TestNormalizeRatingFilter(t *testing.T) {
	assert.Equal(t, 0, normalizeRatingFilter(0))
	assert.Equal(t, 0, normalizeRatingFilter(-2))
	assert.Equal(t, 3, normalizeRatingFilter(3))
	assert.Equal(t, 3, normalizeRatingFilter(7))
	assert.Equal(t, 4, normalizeRatingFilter(8))
	assert.Equal(t, 5, normalizeRatingFilter(12))
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, 3, formatRating(nil))
	assert.Equal(t, 4, formatRating(ptrFloat(4.4)))
	assert.Equal(t, 5, formatRating(ptrFloat(9.0)))
	assert.Equal(t, 3, formatRating(ptrFloat(6.0)))
	assert.Equal(t, 1, formatRating(ptrFloat(0.4)))
}

func TestApplyBudgetFilter(t *testing.T) {
	within := testDestination("Cheap Eats", "Imus", "Restaurant", 4.0)
	within.BudgetAmount = ptrFloat(450)
	buffered := testDestination("Mid Range", "Imus", "Restaurant", 4.0)
	buffered.BudgetAmount = ptrFloat(540)
	over := testDestination("Fine Dining", "Imus", "Restaurant", 4.5)
	over.BudgetAmount = ptrFloat(900)
	unknown := testDestination("No Price", "Imus", "Restaurant", 3.5)

	amount := 500
	qu := &types.QueryUnderstanding{BudgetAmount: &amount}
	candidates := func() []types.RankedCandidate {
		return []types.RankedCandidate{
			{Destination: &within}, {Destination: &buffered}, {Destination: &over}, {Destination: &unknown},
		}
	}

	strict := applyBudgetFilter(candidates(), qu, "restaurants under 500")
	require.Len(t, strict, 1)
	assert.Equal(t, "Cheap Eats", strict[0].Destination.Name)

	relaxed := applyBudgetFilter(candidates(), qu, "restaurants with a budget of 500")
	require.Len(t, relaxed, 2)
	assert.Equal(t, "Cheap Eats", relaxed[0].Destination.Name)
	assert.Equal(t, "Mid Range", relaxed[1].Destination.Name)
}

func TestSampleValues(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e", "f", "g"}

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "..."}, sampleValues(values, 5))
	assert.Equal(t, []string{"a", "b"}, sampleValues([]string{"a", "b"}, 5))
}

func ptrFloat(v float64) *float64 {
	return &v
}

package knowledge

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyasluna999/wertigo/internal/types"
)

func newTestStore(maxSize int) (*Store, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore(maxSize, time.Hour, 24*time.Hour, slog.Default()).
		WithClock(func() time.Time { return now })
	return store, &now
}

func resultWith(city, category string) *types.RecommendResponse {
	return &types.RecommendResponse{
		Recommendations: []types.Recommendation{{Name: "x", City: city, Category: category}},
	}
}

func TestStoreCacheHitAndNormalization(t *testing.T) {
	store, _ := newTestStore(100)
	store.RecordQuery("s1", "the coffee shops in Tagaytay", resultWith("Tagaytay", "Cafe"))

	got := store.GetCachedResult("coffee shops in Tagaytay")
	require.NotNil(t, got)
	assert.Equal(t, "Tagaytay", got.Recommendations[0].City)

	assert.Nil(t, store.GetCachedResult("beaches in Ternate"))
}

func TestStoreCacheExpiry(t *testing.T) {
	store, now := newTestStore(100)
	store.RecordQuery("s1", "cafes in Amadeo", resultWith("Amadeo", "Cafe"))

	*now = now.Add(59 * time.Minute)
	assert.NotNil(t, store.GetCachedResult("cafes in Amadeo"))

	// reading a live entry refreshes its timestamp
	*now = now.Add(59 * time.Minute)
	assert.NotNil(t, store.GetCachedResult("cafes in Amadeo"))

	*now = now.Add(61 * time.Minute)
	assert.Nil(t, store.GetCachedResult("cafes in Amadeo"))
}

func TestStoreEvictsOldestWhenFull(t *testing.T) {
	store, now := newTestStore(3)
	for i := 0; i < 3; i++ {
		store.RecordQuery("s1", fmt.Sprintf("query number %d", i), resultWith("Imus", "Park"))
		*now = now.Add(time.Minute)
	}

	store.RecordQuery("s1", "query number 3", resultWith("Imus", "Park"))

	assert.Nil(t, store.GetCachedResult("query number 0"))
	assert.NotNil(t, store.GetCachedResult("query number 1"))
	assert.NotNil(t, store.GetCachedResult("query number 3"))
}

func TestFindSimilarCachedThresholdIsStrict(t *testing.T) {
	store, _ := newTestStore(100)
	store.RecordQuery("s1", "romantic beach resorts", resultWith("Ternate", "Beach Resort"))

	// identical word set: Jaccard 1.0 > 0.8
	assert.NotNil(t, store.FindSimilarCached("beach romantic resorts", DefaultSimilarityThreshold))

	// 3 shared words out of 4 union: 0.75, not strictly above 0.8
	assert.Nil(t, store.FindSimilarCached("romantic beach hotels resorts", DefaultSimilarityThreshold))
}

func TestPreferencesRankByFrequency(t *testing.T) {
	store, _ := newTestStore(100)
	store.RecordQuery("s1", "q1", &types.RecommendResponse{Recommendations: []types.Recommendation{
		{Name: "a", City: "Tagaytay", Category: "Cafe"},
		{Name: "b", City: "Tagaytay", Category: "Cafe"},
		{Name: "c", City: "Imus", Category: "Restaurant"},
		{Name: "d", City: "Silang", Category: "Park"},
		{Name: "e", City: "Kawit", Category: "Landmark"},
	}})

	cats := store.PreferredCategories("s1", 3)
	require.Len(t, cats, 3)
	assert.Equal(t, "Cafe", cats[0])

	cities := store.PreferredCities("s1", 3)
	require.Len(t, cities, 3)
	assert.Equal(t, "Tagaytay", cities[0])

	assert.Empty(t, store.PreferredCities("other-session", 3))
}

func TestConversationTurnsAndTransitions(t *testing.T) {
	store, _ := newTestStore(100)

	store.AddConversationTurn("s1", "I love the beach", "Here are beaches", nil)
	store.AddConversationTurn("s1", "now I want good food", "Here are restaurants", nil)

	ctx := store.GetConversationContext("s1", "any cheap food nearby?")
	require.NotNil(t, ctx.Conversation)
	assert.Equal(t, 2, ctx.Conversation.Exchanges)
	assert.Contains(t, ctx.Conversation.RecentTopics, "beach")
	assert.Contains(t, ctx.Conversation.RecentTopics, "food")

	require.NotNil(t, ctx.CurrentQuery)
	assert.Contains(t, ctx.CurrentQuery.Topics, "food")
	assert.True(t, ctx.CurrentQuery.TopicContinuity)

	store.mu.Lock()
	transitions := store.topicTransitions["s1"]
	store.mu.Unlock()
	require.NotEmpty(t, transitions)
	assert.Equal(t, "beach", transitions[0].From)
	assert.Equal(t, "food", transitions[0].To)
}

func TestSentimentTrendAveragesRecentTurns(t *testing.T) {
	store, _ := newTestStore(100)
	for _, s := range []float64{1, -1, 0.5, 0.5, 0.5} {
		score := s
		store.AddConversationTurn("s1", "msg", "resp", &score)
	}

	ctx := store.GetConversationContext("s1", "")
	require.NotNil(t, ctx.Conversation)
	assert.InDelta(t, 0.5, ctx.Conversation.SentimentTrend, 1e-9)
}

func TestSessionContextMergeAndExpiry(t *testing.T) {
	store, now := newTestStore(100)
	store.UpdateSessionContext("s1", map[string]any{"last_city": "Imus"})
	store.UpdateSessionContext("s1", map[string]any{"last_category": "Cafe"})

	values := store.GetSessionContext("s1")
	assert.Equal(t, "Imus", values["last_city"])
	assert.Equal(t, "Cafe", values["last_category"])

	*now = now.Add(25 * time.Hour)
	assert.Empty(t, store.GetSessionContext("s1"))
}

func TestAnalyzeSentiment(t *testing.T) {
	// score is relative to the sentiment words found, not the text length
	assert.InDelta(t, 1.0, AnalyzeSentiment("amazing beach"), 1e-9)
	assert.InDelta(t, 1.0, AnalyzeSentiment("I love this amazing beautiful place"), 1e-9)
	assert.InDelta(t, -1.0, AnalyzeSentiment("the food was bad"), 1e-9)
	assert.InDelta(t, -1.0, AnalyzeSentiment("terrible boring dirty place"), 1e-9)
	assert.InDelta(t, -1.0/3.0, AnalyzeSentiment("good food but expensive and crowded"), 1e-9)
	assert.Zero(t, AnalyzeSentiment("restaurants in Kawit"))
	assert.Zero(t, AnalyzeSentiment(""))
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "coffee shops tagaytay", NormalizeQuery("  The coffee shops in Tagaytay "))
	assert.Equal(t, NormalizeQuery("cafes in Imus"), NormalizeQuery("cafes Imus"))
}

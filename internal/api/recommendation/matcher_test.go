package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchCityExactAndSubstring(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "Tagaytay", m.MatchCity("tagaytay", testCities))
	assert.Equal(t, "Tagaytay", m.MatchCity("Tagaytay City", testCities))
	assert.Equal(t, "Imus", m.MatchCity("imu", testCities))
}

func TestMatchCityGazetteer(t *testing.T) {
	m := NewMatcher()

	// canonical spelling known to the gazetteer but absent from the dataset
	assert.Equal(t, "Silang", m.MatchCity("silang", testCities))
}

func TestMatchCityFuzzy(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "Ternate", m.MatchCity("ternat", testCities))
	assert.Equal(t, "", m.MatchCity("manila", testCities))
	assert.Equal(t, "", m.MatchCity("", testCities))
}

func TestMatchCategorySynonym(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "Cafe", m.MatchCategory("coffee shop", testCategories))
	assert.Equal(t, "Restaurant", m.MatchCategory("dining", testCategories))
	assert.Equal(t, "Historical Site", m.MatchCategory("historical", testCategories))
}

func TestMatchCategoryFuzzy(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "Restaurant", m.MatchCategory("restaraunt", testCategories))
	assert.Equal(t, "", m.MatchCategory("spaceport", testCategories))
}

func TestCategoryFromQuery(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "Beach", m.CategoryFromQuery("somewhere with sand and waves", testCategories))
	assert.Equal(t, "", m.CategoryFromQuery("anything at all", testCategories))
}

func TestProvinceOfAndCluster(t *testing.T) {
	m := NewMatcher()

	assert.Equal(t, "cavite", m.ProvinceOf("Tagaytay"))
	assert.Equal(t, "", m.ProvinceOf("Manila"))
	assert.True(t, m.InRegionalCluster("kawit"))
	assert.False(t, m.InRegionalCluster("Cebu"))
}

func TestSimilarityRatio(t *testing.T) {
	assert.InDelta(t, 1.0, similarityRatio("Tagaytay", "tagaytay"), 1e-9)
	assert.InDelta(t, 0.875, similarityRatio("tagaytay", "tagayta"), 1e-9)
	assert.InDelta(t, 1.0, similarityRatio("", ""), 1e-9)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("kawit", "kawit"))
	assert.Equal(t, 1, levenshtein("kawit", "kavit"))
	assert.Equal(t, 5, levenshtein("kawit", ""))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
}

package recommendation

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/eyasluna999/wertigo/internal/api/knowledge"
	"github.com/eyasluna999/wertigo/internal/types"
)

// budgetPatterns are tried in order against the lowercase query; the first
// pattern that matches anywhere determines the amount. Conflicting numbers
// are not reconciled.
var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`under\s*(\d+)\s*(?:pesos|php)?`),
	regexp.MustCompile(`below\s*(\d+)\s*(?:pesos|php)?`),
	regexp.MustCompile(`less than\s*(\d+)\s*(?:pesos|php)?`),
	regexp.MustCompile(`(\d+)\s*(?:pesos|php)?\s*or less`),
	regexp.MustCompile(`budget of\s*(\d+)\s*(?:pesos|php)?`),
	regexp.MustCompile(`(\d+)\s*(?:pesos|php)?`),
}

var strictBudgetWords = []string{"under", "below", "less than"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// locationPrepRe captures a capitalized span right after a location
// preposition, so a place the dataset does not know is still detected and
// can be reported as unavailable instead of silently ignored.
var locationPrepRe = regexp.MustCompile(`\b(?:in|at|near|around|to)\s+([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*)`)

// Extractor turns raw query text into a candidate city, category, budget
// amount, and a cleaned residual query.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses the query against the known city and category sets.
// When none of city, category, or budget can be found, the returned
// understanding reports HasFilters() == false so the caller can prompt the
// user instead of attempting a wide-open search.
func (e *Extractor) Extract(query string, knownCities, knownCategories []string) types.QueryUnderstanding {
	queryLower := strings.ToLower(query)

	qu := types.QueryUnderstanding{
		OriginalQuery: query,
		CleanedQuery:  query,
	}

	qu.DetectedCity = e.detectCity(query, queryLower, knownCities)
	qu.DetectedCategory = detectCategory(queryLower, knownCategories)

	if amount, ok := extractBudgetAmount(queryLower); ok {
		qu.BudgetAmount = &amount
	}

	qu.DetectedIntent = detectIntent(queryLower)
	qu.TripType = firstKeywordHit(queryLower, tripTypeKeywords, []string{"adventure", "relaxation", "cultural", "family", "romantic", "food", "shopping"})
	qu.BudgetPreference = types.BudgetPreference(firstKeywordHit(queryLower, budgetTierKeywords, []string{"low", "medium", "high"}))

	sentiment := knowledge.AnalyzeSentiment(query)
	qu.Sentiment = &sentiment

	qu.CleanedQuery = e.cleanQuery(query, qu.DetectedCity, qu.DetectedCategory)
	if strings.TrimSpace(qu.CleanedQuery) == "" {
		qu.CleanedQuery = query
	}

	return qu
}

// detectCity first scans entity-like spans (capitalized word runs) against
// the known cities with substring containment in either direction, then
// falls back to a direct substring scan of the full query in collection
// order. First hit wins in both passes; ties are not re-ranked by length.
func (e *Extractor) detectCity(query, queryLower string, knownCities []string) string {
	for _, span := range entitySpans(query) {
		spanLower := strings.ToLower(span)
		for _, city := range knownCities {
			cityLower := strings.ToLower(city)
			if strings.Contains(cityLower, spanLower) || strings.Contains(spanLower, cityLower) {
				return city
			}
		}
	}
	for _, city := range knownCities {
		if strings.Contains(queryLower, strings.ToLower(city)) {
			return city
		}
	}
	if m := locationPrepRe.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}

// entitySpans returns runs of capitalized words, the closest thing to
// geopolitical-entity candidates without a full NER pass.
func entitySpans(query string) []string {
	var spans []string
	var current []string
	for _, word := range strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(word)
		if len(runes) > 1 && unicode.IsUpper(runes[0]) {
			current = append(current, word)
			continue
		}
		if len(current) > 0 {
			spans = append(spans, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		spans = append(spans, strings.Join(current, " "))
	}
	return spans
}

// detectCategory checks each known category in enumeration order: a direct
// substring match wins first, then any synonym token present in the query.
// The first category with any match wins.
func detectCategory(queryLower string, knownCategories []string) string {
	for _, cat := range knownCategories {
		if strings.Contains(queryLower, strings.ToLower(cat)) {
			return cat
		}
		for _, synonym := range categorySynonyms[cat] {
			if strings.Contains(queryLower, synonym) {
				return cat
			}
		}
	}
	return ""
}

func extractBudgetAmount(queryLower string) (int, bool) {
	for _, pattern := range budgetPatterns {
		if m := pattern.FindStringSubmatch(queryLower); m != nil {
			amount, err := strconv.Atoi(m[1])
			if err == nil {
				return amount, true
			}
		}
	}
	return 0, false
}

// IsStrictBudget reports whether the query phrasing requires the budget
// limit to be enforced exactly rather than with a buffer.
func IsStrictBudget(query string) bool {
	queryLower := strings.ToLower(query)
	for _, w := range strictBudgetWords {
		if strings.Contains(queryLower, w) {
			return true
		}
	}
	return false
}

// detectIntent scores every intent phrase by word count (doubled) with a
// bonus for phrases at the start of the query; the highest score wins.
func detectIntent(queryLower string) string {
	detected := ""
	bestScore := 0
	for _, intent := range []string{"find_destination", "explore_activity", "plan_trip", "get_info", "compare_destinations"} {
		for _, phrase := range intentPhrases[intent] {
			if !strings.Contains(queryLower, phrase) {
				continue
			}
			score := len(strings.Fields(phrase)) * 2
			if strings.HasPrefix(queryLower, phrase) {
				score += 3
			}
			if score > bestScore {
				bestScore = score
				detected = intent
			}
		}
	}
	return detected
}

// firstKeywordHit returns the first key (in the given order) with any
// keyword present in the query.
func firstKeywordHit(queryLower string, table map[string][]string, order []string) string {
	for _, key := range order {
		for _, term := range table[key] {
			if strings.Contains(queryLower, term) {
				return key
			}
		}
	}
	return ""
}

// cleanQuery removes the matched city and category mentions (including all
// known synonyms of the matched category) with whole-word, case-insensitive
// removal, then collapses whitespace.
func (e *Extractor) cleanQuery(query, city, category string) string {
	cleaned := query
	if city != "" {
		cleaned = removeWholeWord(cleaned, city)
	}
	if category != "" {
		cleaned = removeWholeWord(cleaned, category)
		for _, synonym := range categorySynonyms[category] {
			cleaned = removeWholeWord(cleaned, synonym)
		}
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
}

func removeWholeWord(text, word string) string {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return text
	}
	return re.ReplaceAllString(text, "")
}

package recommendation

import (
	"strings"
	"unicode"
)

// Fuzzy-match thresholds. City matching is held to a higher bar than
// category matching because city names are short and easy to confuse.
const (
	cityFuzzyThreshold     = 0.7
	categoryFuzzyThreshold = 0.6
	wordOverlapThreshold   = 0.5
)

// Matcher resolves free-form candidate strings to canonical dataset values.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// MatchCity resolves a candidate city string against the canonical city set.
// Precedence: exact equality, substring containment either direction,
// gazetteer lookup, word overlap, fuzzy similarity. Returns "" when nothing
// clears the threshold. Ties are broken by enumeration order (first found).
func (m *Matcher) MatchCity(candidate string, cities []string) string {
	if candidate == "" {
		return ""
	}
	lower := strings.ToLower(strings.TrimSpace(candidate))

	for _, city := range cities {
		if strings.ToLower(city) == lower {
			return city
		}
	}
	for _, city := range cities {
		cityLower := strings.ToLower(city)
		if strings.Contains(cityLower, lower) || strings.Contains(lower, cityLower) {
			return city
		}
	}
	if canonical, ok := cityGazetteer[lower]; ok {
		for _, city := range cities {
			if strings.EqualFold(city, canonical) {
				return city
			}
		}
		return canonical
	}
	if match := matchByWordOverlap(lower, cities); match != "" {
		return match
	}
	return matchByFuzzyRatio(lower, cities, cityFuzzyThreshold)
}

// MatchCategory resolves a candidate category string against the canonical
// category set using the same precedence as MatchCity, with the synonym
// table in place of the gazetteer and a lower fuzzy threshold.
func (m *Matcher) MatchCategory(candidate string, categories []string) string {
	if candidate == "" {
		return ""
	}
	lower := strings.ToLower(strings.TrimSpace(candidate))

	for _, cat := range categories {
		if strings.ToLower(cat) == lower {
			return cat
		}
	}
	for _, cat := range categories {
		catLower := strings.ToLower(cat)
		if strings.Contains(catLower, lower) || strings.Contains(lower, catLower) {
			return cat
		}
	}
	for _, cat := range categories {
		for _, synonym := range categorySynonyms[cat] {
			if strings.Contains(lower, synonym) {
				return cat
			}
		}
	}
	if match := matchByWordOverlap(lower, categories); match != "" {
		return match
	}
	return matchByFuzzyRatio(lower, categories, categoryFuzzyThreshold)
}

// CategoryFromQuery scans a whole query for a category keyword. Known
// categories are checked in enumeration order; within a category, direct
// substring match wins over synonyms. First category with any match wins.
func (m *Matcher) CategoryFromQuery(query string, categories []string) string {
	queryLower := strings.ToLower(query)
	for _, cat := range categories {
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

// ProvinceOf returns the lowercase province for a known regional city, or
// "" when the city is not in the gazetteer.
func (m *Matcher) ProvinceOf(city string) string {
	if _, ok := cityGazetteer[strings.ToLower(city)]; ok {
		return gazetteerProvince
	}
	return ""
}

// InRegionalCluster reports whether a city belongs to the hardcoded
// same-province cluster used for sibling-city boosts.
func (m *Matcher) InRegionalCluster(city string) bool {
	_, ok := cityGazetteer[strings.ToLower(city)]
	return ok
}

func matchByWordOverlap(candidate string, values []string) string {
	candidateWords := wordSet(candidate)
	if len(candidateWords) == 0 {
		return ""
	}
	for _, value := range values {
		valueWords := wordSet(strings.ToLower(value))
		overlap := 0
		for w := range candidateWords {
			if _, ok := valueWords[w]; ok {
				overlap++
			}
		}
		if float64(overlap)/float64(len(candidateWords)) >= wordOverlapThreshold {
			return value
		}
	}
	return ""
}

// matchByFuzzyRatio compares the candidate against each full value and its
// space-delimited parts; the single highest ratio above threshold wins,
// first found breaking ties.
func matchByFuzzyRatio(candidate string, values []string, threshold float64) string {
	best := ""
	bestRatio := threshold
	for _, value := range values {
		valueLower := strings.ToLower(value)
		if r := similarityRatio(candidate, valueLower); r > bestRatio {
			bestRatio = r
			best = value
		}
		for _, part := range strings.Fields(valueLower) {
			if r := similarityRatio(candidate, part); r > bestRatio {
				bestRatio = r
				best = value
			}
		}
	}
	return best
}

// similarityRatio is a normalized edit-distance ratio in [0, 1]:
// 1 - levenshtein(a, b) / max(len(a), len(b)). Non-alphanumeric runes are
// stripped before comparison.
func similarityRatio(a, b string) float64 {
	a = normalizeAlnum(a)
	b = normalizeAlnum(b)
	if a == "" && b == "" {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

func normalizeAlnum(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

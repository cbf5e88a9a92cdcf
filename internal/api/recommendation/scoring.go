package recommendation

import (
	"strings"

	"github.com/eyasluna999/wertigo/internal/types"
)

// Scoring policy for the ranker and the fallback chain. Every multiplier is
// named here so its effect size can be tuned and tested in isolation. Scores
// are multiplicative; every factor defaults to 1.0 when its input is absent.

const (
	// Location multipliers applied to embedding similarity.
	locationExactCityBoost       = 2.5 // destination city equals the detected city
	locationProvinceSiblingBoost = 2.0 // sibling city in the detected city's regional cluster
	locationProvinceNameBoost    = 1.8 // detected city mentions the destination's province
	locationPartialCityBoost     = 1.5 // substring overlap between city names
	locationProvinceMatchBoost   = 1.2 // detected city appears in the province name

	// Category multiplier when the destination category equals the detected
	// category (case-insensitive).
	categoryMatchBoost = 1.3

	// Fallback chain: city-match tier scores used when exact filtering fails.
	cityTierExact            = 1.0
	cityTierProvinceSibling  = 0.9
	cityTierProvinceName     = 0.8
	cityTierSubstring        = 0.7
	cityTierProvinceContains = 0.6
	cityTierSiblingProvince  = 0.4

	// Category-group search weights: the primary category counts double.
	groupPrimaryWeight   = 2.0
	groupSecondaryWeight = 1.0
	groupCityMatchBoost  = 1.5

	// Full-text search location multipliers.
	fulltextExactCityBoost   = 2.0
	fulltextPartialCityBoost = 1.5
	fulltextProvinceBoost    = 1.2

	// Description relevance: per query term found in a description, capped.
	descriptionTermBonus    = 0.2
	descriptionBonusCeiling = 1.0
)

// locationBoost returns the multiplier for how well a destination matches
// the detected city. Exactly one tier applies, checked from strongest to
// weakest.
func locationBoost(d *types.Destination, detectedCity string, m *Matcher) float64 {
	if detectedCity == "" {
		return 1.0
	}
	cityLower := strings.ToLower(detectedCity)
	destCityLower := strings.ToLower(d.City)
	provinceLower := strings.ToLower(d.Province)

	switch {
	case destCityLower == cityLower:
		return locationExactCityBoost
	case m.InRegionalCluster(detectedCity) && m.InRegionalCluster(d.City):
		return locationProvinceSiblingBoost
	case provinceLower != "" && strings.Contains(cityLower, provinceLower):
		return locationProvinceNameBoost
	case strings.Contains(destCityLower, cityLower) || strings.Contains(cityLower, destCityLower):
		return locationPartialCityBoost
	case provinceLower != "" && strings.Contains(provinceLower, cityLower):
		return locationProvinceMatchBoost
	}
	return 1.0
}

// cityMatchTier scores how well a destination's city matches the detected
// city on a 0..1 scale for wide scans. Zero means no relation at all.
func cityMatchTier(d *types.Destination, detectedCity string, m *Matcher) float64 {
	if detectedCity == "" {
		return 0
	}
	cityLower := strings.ToLower(detectedCity)
	destCityLower := strings.ToLower(d.City)
	provinceLower := strings.ToLower(d.Province)

	switch {
	case destCityLower == cityLower:
		return cityTierExact
	case m.InRegionalCluster(detectedCity) && m.InRegionalCluster(d.City):
		return cityTierProvinceSibling
	case provinceLower != "" && strings.Contains(cityLower, provinceLower):
		return cityTierProvinceName
	case strings.Contains(destCityLower, cityLower) || strings.Contains(cityLower, destCityLower):
		return cityTierSubstring
	case provinceLower != "" && strings.Contains(provinceLower, cityLower):
		return cityTierProvinceContains
	case m.ProvinceOf(detectedCity) != "" && m.ProvinceOf(detectedCity) == strings.ToLower(d.Province):
		return cityTierSiblingProvince
	}
	return 0
}

// categoryBoost returns the category multiplier when the destination's
// category list contains the detected category.
func categoryBoost(d *types.Destination, detectedCategory string) float64 {
	if detectedCategory == "" {
		return 1.0
	}
	for _, c := range d.Categories() {
		if strings.EqualFold(c, detectedCategory) {
			return categoryMatchBoost
		}
	}
	return 1.0
}

// descriptionRelevance adds a small bonus per query term found in the
// destination's description, capped so long queries cannot dominate.
func descriptionRelevance(d *types.Destination, query string) float64 {
	descLower := strings.ToLower(d.Description)
	bonus := 0.0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if len(term) < 3 {
			continue
		}
		if strings.Contains(descLower, term) {
			bonus += descriptionTermBonus
		}
	}
	if bonus > descriptionBonusCeiling {
		bonus = descriptionBonusCeiling
	}
	return bonus
}

// ratingBoost scales a score by 1 + rating/10 when a numeric rating exists.
func ratingBoost(d *types.Destination) float64 {
	if d.Rating == nil {
		return 1.0
	}
	return 1.0 + *d.Rating/10.0
}

// popularityBoost scales a score by 1 + popularity/100 when present.
func popularityBoost(d *types.Destination) float64 {
	if d.PopularityScore == nil {
		return 1.0
	}
	return 1.0 + *d.PopularityScore/100.0
}

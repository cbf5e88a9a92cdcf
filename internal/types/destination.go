package types

import (
	"strings"

	"github.com/google/uuid"
)

// Destination is a single point-of-interest row from the dataset. Rows are
// read-only to the recommendation core once loaded.
type Destination struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	City               string    `json:"city"`
	Province           string    `json:"province"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Metadata           string    `json:"metadata,omitempty"`
	Rating             *float64  `json:"rating,omitempty"`
	Budget             string    `json:"budget,omitempty"`
	BudgetAmount       *float64  `json:"budget_amount,omitempty"`
	Latitude           *float64  `json:"latitude,omitempty"`
	Longitude          *float64  `json:"longitude,omitempty"`
	OperatingHours     string    `json:"operating_hours,omitempty"`
	ContactInformation string    `json:"contact_information,omitempty"`
	PopularityScore    *float64  `json:"popularity_score,omitempty"`
}

// Categories splits the comma-separated category column into its parts,
// the first one being the primary category.
func (d *Destination) Categories() []string {
	parts := strings.Split(d.Category, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// CombinedText builds the weighted text used for embedding generation.
// The description is repeated to give it more weight in the vector space.
func (d *Destination) CombinedText() string {
	return d.Description + " " + d.Description + " " + d.Name + " " + d.Category + " " + d.Metadata
}

// RankedCandidate pairs a destination with its raw similarity and its
// multiplier-adjusted final score. Produced by the ranker or the fallback
// chain, consumed once by the assembler, never persisted.
type RankedCandidate struct {
	Destination *Destination
	Similarity  float64
	Score       float64
}

// Recommendation is the stable formatted result shape returned to clients.
type Recommendation struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	City               string    `json:"city"`
	Province           string    `json:"province,omitempty"`
	Category           string    `json:"category"`
	Description        string    `json:"description"`
	Rating             int       `json:"rating"`
	Budget             string    `json:"budget"`
	PopularityScore    float64   `json:"popularity_score"`
	Latitude           *float64  `json:"latitude,omitempty"`
	Longitude          *float64  `json:"longitude,omitempty"`
	OperatingHours     string    `json:"operating_hours,omitempty"`
	ContactInformation string    `json:"contact_information,omitempty"`
	Metadata           string    `json:"metadata,omitempty"`
}

// CityCategoryCount is one (city, category) pairing with its row count,
// exposed by the dataset-info endpoint.
type CityCategoryCount struct {
	City     string `json:"city"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DatasetInfo describes the distinct values available in the dataset.
type DatasetInfo struct {
	Cities            []string            `json:"cities"`
	Categories        []string            `json:"categories"`
	CityCategoryPairs []CityCategoryCount `json:"city_category_pairs"`
	TotalDestinations int                 `json:"total_destinations"`
}

package types

// BudgetPreference is a categorical budget tier inferred from wording like
// "cheap" or "luxury", distinct from an explicit numeric BudgetAmount.
type BudgetPreference string

const (
	BudgetLow    BudgetPreference = "low"
	BudgetMedium BudgetPreference = "medium"
	BudgetHigh   BudgetPreference = "high"
)

// QueryUnderstanding is the derived, per-request interpretation of a raw
// travel query.
type QueryUnderstanding struct {
	OriginalQuery    string           `json:"original_query"`
	CleanedQuery     string           `json:"cleaned_query"`
	DetectedIntent   string           `json:"detected_intent,omitempty"`
	DetectedCity     string           `json:"detected_city,omitempty"`
	DetectedCategory string           `json:"detected_category,omitempty"`
	BudgetPreference BudgetPreference `json:"budget_preference,omitempty"`
	BudgetAmount     *int             `json:"budget_amount,omitempty"`
	TripType         string           `json:"trip_type,omitempty"`
	Sentiment        *float64         `json:"sentiment,omitempty"`
}

// HasFilters reports whether the extractor found at least one of city,
// category, or budget. When false the caller should prompt the user
// instead of attempting a wide-open search.
func (q *QueryUnderstanding) HasFilters() bool {
	return q.DetectedCity != "" || q.DetectedCategory != "" ||
		q.BudgetPreference != "" || q.BudgetAmount != nil
}

// DataAvailability explains why a (city, category) request could not be
// served from the dataset. Nil fields were not checked for the request.
type DataAvailability struct {
	CityExists        *bool `json:"city_exists"`
	CategoryExists    *bool `json:"category_exists"`
	CombinationExists *bool `json:"combination_exists"`
}

// RecommendRequest is the body of the recommend endpoint.
type RecommendRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Rating    int    `json:"rating,omitempty"`
}

// RecommendResponse is either a conversational message or a recommendation
// payload, discriminated by IsConversation.
type RecommendResponse struct {
	IsConversation      bool                `json:"is_conversation"`
	Message             string              `json:"message,omitempty"`
	DetectedCity        string              `json:"detected_city,omitempty"`
	DetectedCategory    string              `json:"detected_category,omitempty"`
	Recommendations     []Recommendation    `json:"recommendations,omitempty"`
	QueryUnderstanding  *QueryUnderstanding `json:"query_understanding,omitempty"`
	DataAvailability    *DataAvailability   `json:"data_availability,omitempty"`
	AvailableCities     []string            `json:"available_cities,omitempty"`
	AvailableCategories []string            `json:"available_categories,omitempty"`
	FollowUpSuggestions []string            `json:"follow_up_suggestions,omitempty"`
	RatingFilterApplied int                 `json:"rating_filter_applied,omitempty"`
	FilterMessage       string              `json:"filter_message,omitempty"`
}

package types

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a saved trip plan built from recommended destinations.
type Trip struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Name          string     `json:"name"`
	Destination   string     `json:"destination"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	EstimatedCost float64    `json:"estimated_cost"`
	Days          []TripDay  `json:"days,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TripDay is one day of a generated itinerary.
type TripDay struct {
	Day    int         `json:"day"`
	Places []TripPlace `json:"places"`
}

// TripPlace is a stop within a trip day.
type TripPlace struct {
	DestinationID uuid.UUID `json:"destination_id"`
	Name          string    `json:"name"`
	City          string    `json:"city"`
	Category      string    `json:"category"`
}

type CreateTripRequest struct {
	Name            string           `json:"name"`
	Destination     string           `json:"destination"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
	EndDate         *time.Time       `json:"end_date,omitempty"`
	NumDays         int              `json:"num_days,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

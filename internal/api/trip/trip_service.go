package trip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eyasluna999/wertigo/internal/types"
)

const (
	maxPlacesPerDay    = 4
	defaultPlaceBudget = 500
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error)
	GetTrip(ctx context.Context, id, userID uuid.UUID) (*types.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID) ([]types.Trip, error)
	DeleteTrip(ctx context.Context, id, userID uuid.UUID) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// CreateTrip builds an itinerary from the selected recommendations, spreads
// the stops over the trip days, estimates the cost, and persists the trip.
func (s *ServiceImpl) CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: trip name is required", types.ErrValidationFailed)
	}
	if len(req.Recommendations) == 0 {
		return nil, fmt.Errorf("%w: at least one destination is required", types.ErrValidationFailed)
	}

	numDays := s.resolveNumDays(req)
	trip := &types.Trip{
		UserID:        userID,
		Name:          name,
		Destination:   req.Destination,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		EstimatedCost: estimateCost(req.Recommendations),
		Days:          buildItinerary(req.Recommendations, numDays),
	}

	id, err := s.repo.CreateTrip(ctx, trip)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist trip")
		return nil, err
	}
	trip.ID = id
	s.logger.InfoContext(ctx, "Trip created", slog.String("trip_id", id.String()), slog.Int("days", numDays))
	return trip, nil
}

func (s *ServiceImpl) GetTrip(ctx context.Context, id, userID uuid.UUID) (*types.Trip, error) {
	return s.repo.GetTrip(ctx, id, userID)
}

func (s *ServiceImpl) ListTrips(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	return s.repo.ListTrips(ctx, userID)
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.DeleteTrip(ctx, id, userID)
}

// resolveNumDays prefers the explicit day count, then the date range, then
// enough days to fit every stop.
func (s *ServiceImpl) resolveNumDays(req types.CreateTripRequest) int {
	if req.NumDays > 0 {
		return req.NumDays
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.After(*req.StartDate) {
		return int(req.EndDate.Sub(*req.StartDate).Hours()/24) + 1
	}
	days := (len(req.Recommendations) + maxPlacesPerDay - 1) / maxPlacesPerDay
	if days < 1 {
		days = 1
	}
	return days
}

// buildItinerary deals the stops across the days round-robin so every day
// gets a balanced share.
func buildItinerary(recs []types.Recommendation, numDays int) []types.TripDay {
	days := make([]types.TripDay, numDays)
	for i := range days {
		days[i].Day = i + 1
	}
	for i, rec := range recs {
		dayIdx := i % numDays
		days[dayIdx].Places = append(days[dayIdx].Places, types.TripPlace{
			DestinationID: rec.ID,
			Name:          rec.Name,
			City:          rec.City,
			Category:      rec.Category,
		})
	}
	return days
}

// estimateCost sums per-stop budgets, substituting a flat default when a
// destination carries no parseable budget.
func estimateCost(recs []types.Recommendation) float64 {
	total := 0.0
	for _, rec := range recs {
		if amount, ok := parseBudget(rec.Budget); ok {
			total += amount
			continue
		}
		total += defaultPlaceBudget
	}
	return total
}

// parseBudget pulls the first number out of a free-form budget string like
// "PHP 500-1000" or "₱250 per head".
func parseBudget(budget string) (float64, bool) {
	var value float64
	found := false
	num := 0.0
	inNumber := false
	for _, r := range budget {
		if r >= '0' && r <= '9' {
			num = num*10 + float64(r-'0')
			inNumber = true
			continue
		}
		if inNumber {
			value = num
			found = true
			break
		}
	}
	if inNumber && !found {
		value = num
		found = true
	}
	return value, found
}

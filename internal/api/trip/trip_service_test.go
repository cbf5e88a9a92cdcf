package trip

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eyasluna999/wertigo/internal/types"
)

type MockTripRepository struct {
	mock.Mock
}

var _ Repository = (*MockTripRepository)(nil)

func (m *MockTripRepository) CreateTrip(ctx context.Context, trip *types.Trip) (uuid.UUID, error) {
	args := m.Called(ctx, trip)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTripRepository) GetTrip(ctx context.Context, id, userID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, id, userID)
	if v := args.Get(0); v != nil {
		return v.(*types.Trip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTripRepository) ListTrips(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]types.Trip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTripRepository) DeleteTrip(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func rec(name, budget string) types.Recommendation {
	return types.Recommendation{ID: uuid.New(), Name: name, City: "Tagaytay", Category: "Cafe", Budget: budget}
}

func TestCreateTripValidation(t *testing.T) {
	s := NewServiceImpl(new(MockTripRepository), slog.Default())
	userID := uuid.New()

	_, err := s.CreateTrip(context.Background(), userID, types.CreateTripRequest{Name: "  "})
	assert.ErrorIs(t, err, types.ErrValidationFailed)

	_, err = s.CreateTrip(context.Background(), userID, types.CreateTripRequest{Name: "Weekend"})
	assert.ErrorIs(t, err, types.ErrValidationFailed)
}

func TestCreateTripBuildsItinerary(t *testing.T) {
	repo := new(MockTripRepository)
	s := NewServiceImpl(repo, slog.Default())
	userID := uuid.New()
	tripID := uuid.New()

	repo.On("CreateTrip", mock.Anything, mock.AnythingOfType("*types.Trip")).Return(tripID, nil).Once()

	req := types.CreateTripRequest{
		Name:        "Tagaytay weekend",
		Destination: "Tagaytay",
		NumDays:     2,
		Recommendations: []types.Recommendation{
			rec("Bag of Beans", "PHP 350"),
			rec("Sky Ranch", "PHP 900 per head"),
			rec("Picnic Grove", ""),
		},
	}
	trip, err := s.CreateTrip(context.Background(), userID, req)
	require.NoError(t, err)

	assert.Equal(t, tripID, trip.ID)
	assert.Equal(t, userID, trip.UserID)
	// 350 + 900, plus the flat default for the unpriced stop
	assert.InDelta(t, 1750, trip.EstimatedCost, 1e-9)

	require.Len(t, trip.Days, 2)
	assert.Equal(t, 1, trip.Days[0].Day)
	require.Len(t, trip.Days[0].Places, 2)
	assert.Equal(t, "Bag of Beans", trip.Days[0].Places[0].Name)
	assert.Equal(t, "Picnic Grove", trip.Days[0].Places[1].Name)
	require.Len(t, trip.Days[1].Places, 1)
	assert.Equal(t, "Sky Ranch", trip.Days[1].Places[0].Name)
	repo.AssertExpectations(t)
}

func TestResolveNumDays(t *testing.T) {
	s := NewServiceImpl(new(MockTripRepository), slog.Default())

	recs := make([]types.Recommendation, 6)
	assert.Equal(t, 3, s.resolveNumDays(types.CreateTripRequest{NumDays: 3}))

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)
	assert.Equal(t, 3, s.resolveNumDays(types.CreateTripRequest{StartDate: &start, EndDate: &end}))

	// 6 stops at up to 4 per day
	assert.Equal(t, 2, s.resolveNumDays(types.CreateTripRequest{Recommendations: recs}))
	assert.Equal(t, 1, s.resolveNumDays(types.CreateTripRequest{}))
}

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in     string
		amount float64
		ok     bool
	}{
		{"PHP 500-1000", 500, true},
		{"₱250 per head", 250, true},
		{"750", 750, true},
		{"free entrance", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		amount, ok := parseBudget(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.amount, amount, 1e-9, tt.in)
	}
}

func TestDeleteTripPassthrough(t *testing.T) {
	repo := new(MockTripRepository)
	s := NewServiceImpl(repo, slog.Default())
	id, userID := uuid.New(), uuid.New()

	repo.On("DeleteTrip", mock.Anything, id, userID).Return(types.ErrNotFound).Once()

	err := s.DeleteTrip(context.Background(), id, userID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	repo.AssertExpectations(t)
}

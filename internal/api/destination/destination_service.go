package destination

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/eyasluna999/wertigo/internal/types"
)

const (
	cacheKeyCities     = "dataset:cities"
	cacheKeyCategories = "dataset:categories"
	cacheKeyInfo       = "dataset:info"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetCities(ctx context.Context) ([]string, error)
	GetCategories(ctx context.Context) ([]string, error)
	GetDatasetInfo(ctx context.Context) (*types.DatasetInfo, error)
	GetDestinationByID(ctx context.Context, id uuid.UUID) (*types.Destination, error)
	InvalidateCache()
}

// ServiceImpl serves dataset metadata with a process-local cache in front of
// the repository. Distinct-value lists change only when the dataset is
// reloaded, so a long TTL is fine.
type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(24*time.Hour, 1*time.Hour),
	}
}

func (s *ServiceImpl) GetCities(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("DestinationService").Start(ctx, "GetCities")
	defer span.End()

	if cached, found := s.cache.Get(cacheKeyCities); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]string), nil
	}

	cities, err := s.repo.GetDistinctCities(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch cities")
		return nil, fmt.Errorf("fetching distinct cities: %w", err)
	}
	s.cache.Set(cacheKeyCities, cities, cache.DefaultExpiration)
	return cities, nil
}

func (s *ServiceImpl) GetCategories(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("DestinationService").Start(ctx, "GetCategories")
	defer span.End()

	if cached, found := s.cache.Get(cacheKeyCategories); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]string), nil
	}

	categories, err := s.repo.GetDistinctCategories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch categories")
		return nil, fmt.Errorf("fetching distinct categories: %w", err)
	}
	s.cache.Set(cacheKeyCategories, categories, cache.DefaultExpiration)
	return categories, nil
}

func (s *ServiceImpl) GetDatasetInfo(ctx context.Context) (*types.DatasetInfo, error) {
	ctx, span := otel.Tracer("DestinationService").Start(ctx, "GetDatasetInfo")
	defer span.End()

	if cached, found := s.cache.Get(cacheKeyInfo); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.(*types.DatasetInfo), nil
	}

	cities, err := s.GetCities(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	pairs, err := s.repo.GetCityCategoryPairs(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch city/category pairs")
		return nil, fmt.Errorf("fetching city/category pairs: %w", err)
	}
	total, err := s.repo.CountDestinations(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to count destinations")
		return nil, fmt.Errorf("counting destinations: %w", err)
	}

	info := &types.DatasetInfo{
		Cities:            cities,
		Categories:        categories,
		CityCategoryPairs: pairs,
		TotalDestinations: total,
	}
	s.cache.Set(cacheKeyInfo, info, cache.DefaultExpiration)
	return info, nil
}

func (s *ServiceImpl) GetDestinationByID(ctx context.Context, id uuid.UUID) (*types.Destination, error) {
	ctx, span := otel.Tracer("DestinationService").Start(ctx, "GetDestinationByID", trace.WithAttributes(
		attribute.String("destination.id", id.String()),
	))
	defer span.End()

	d, err := s.repo.GetDestinationByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch destination")
		return nil, fmt.Errorf("fetching destination %s: %w", id, err)
	}
	return d, nil
}

// InvalidateCache drops all cached dataset metadata. Called after a dataset
// reload.
func (s *ServiceImpl) InvalidateCache() {
	s.cache.Flush()
}

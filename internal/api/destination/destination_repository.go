package destination

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eyasluna999/wertigo/internal/types"
)

// DB is the subset of pgxpool.Pool the repository needs. It exists so the
// repository can be exercised with pgxmock in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	GetAllDestinations(ctx context.Context) ([]types.Destination, error)
	GetDestinations(ctx context.Context, city, category string, limit int) ([]types.Destination, error)
	GetDestinationsByCategories(ctx context.Context, categories []string, limit int) ([]types.Destination, error)
	SearchDestinations(ctx context.Context, query string, limit int) ([]SearchResult, error)
	SampleDestinations(ctx context.Context, limit int) ([]types.Destination, error)
	GetDestinationByID(ctx context.Context, id uuid.UUID) (*types.Destination, error)
	GetDistinctCities(ctx context.Context) ([]string, error)
	GetDistinctCategories(ctx context.Context) ([]string, error)
	GetCityCategoryPairs(ctx context.Context) ([]types.CityCategoryCount, error)
	CountDestinations(ctx context.Context) (int, error)
}

// SearchResult is a destination with its full-text relevance rank.
type SearchResult struct {
	Destination types.Destination
	Rank        float64
}

type PostgresRepository struct {
	logger *slog.Logger
	db     DB
}

func NewPostgresRepository(db DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		db:     db,
	}
}

const destinationColumns = `
        id, name, city, province, description, category, metadata,
        rating, budget, budget_amount, latitude, longitude,
        operating_hours, contact_information, popularity_score
`

func scanDestination(row pgx.Row) (*types.Destination, error) {
	var d types.Destination
	var metadata, budget, operatingHours, contactInformation *string
	err := row.Scan(
		&d.ID, &d.Name, &d.City, &d.Province, &d.Description, &d.Category, &metadata,
		&d.Rating, &budget, &d.BudgetAmount, &d.Latitude, &d.Longitude,
		&operatingHours, &contactInformation, &d.PopularityScore,
	)
	if err != nil {
		return nil, err
	}
	if metadata != nil {
		d.Metadata = *metadata
	}
	if budget != nil {
		d.Budget = *budget
	}
	if operatingHours != nil {
		d.OperatingHours = *operatingHours
	}
	if contactInformation != nil {
		d.ContactInformation = *contactInformation
	}
	return &d, nil
}

func collectDestinations(rows pgx.Rows) ([]types.Destination, error) {
	defer rows.Close()
	var out []types.Destination
	for rows.Next() {
		d, err := scanDestination(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate destinations: %w", err)
	}
	return out, nil
}

// GetAllDestinations returns every row ordered by ID so the slice order is
// stable across calls and matches the embedding matrix generation order.
func (r *PostgresRepository) GetAllDestinations(ctx context.Context) ([]types.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations ORDER BY id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	return collectDestinations(rows)
}

// GetDestinations filters by exact city and/or category, case-insensitively.
// Empty filter values are skipped.
func (r *PostgresRepository) GetDestinations(ctx context.Context, city, category string, limit int) ([]types.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE 1=1`
	args := []any{}
	if city != "" {
		args = append(args, city)
		query += fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", len(args))
	}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY rating DESC NULLS LAST, name LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations by filter: %w", err)
	}
	return collectDestinations(rows)
}

// GetDestinationsByCategories returns rows whose category matches any of the
// given values, case-insensitively.
func (r *PostgresRepository) GetDestinationsByCategories(ctx context.Context, categories []string, limit int) ([]types.Destination, error) {
	lowered := make([]string, len(categories))
	for i, c := range categories {
		lowered[i] = strings.ToLower(c)
	}
	query := `SELECT ` + destinationColumns + `
        FROM destinations
        WHERE LOWER(category) = ANY($1)
        ORDER BY rating DESC NULLS LAST, name
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, lowered, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations by categories: %w", err)
	}
	return collectDestinations(rows)
}

// SearchDestinations runs a full-text search over name, description,
// category, and metadata, returning rows with their relevance rank.
func (r *PostgresRepository) SearchDestinations(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	sql := `SELECT ` + destinationColumns + `,
        ts_rank(search_vector, plainto_tsquery('english', $1)) AS rank
        FROM destinations
        WHERE search_vector @@ plainto_tsquery('english', $1)
        ORDER BY rank DESC
        LIMIT $2`
	rows, err := r.db.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run full-text search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var d types.Destination
		var metadata, budget, operatingHours, contactInformation *string
		var rank float64
		err := rows.Scan(
			&d.ID, &d.Name, &d.City, &d.Province, &d.Description, &d.Category, &metadata,
			&d.Rating, &budget, &d.BudgetAmount, &d.Latitude, &d.Longitude,
			&operatingHours, &contactInformation, &d.PopularityScore,
			&rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		if metadata != nil {
			d.Metadata = *metadata
		}
		if budget != nil {
			d.Budget = *budget
		}
		if operatingHours != nil {
			d.OperatingHours = *operatingHours
		}
		if contactInformation != nil {
			d.ContactInformation = *contactInformation
		}
		out = append(out, SearchResult{Destination: d, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}
	return out, nil
}

// SampleDestinations returns a deterministic slice of rows for wide scans
// and last-resort sampling.
func (r *PostgresRepository) SampleDestinations(ctx context.Context, limit int) ([]types.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations ORDER BY name LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample destinations: %w", err)
	}
	return collectDestinations(rows)
}

func (r *PostgresRepository) GetDestinationByID(ctx context.Context, id uuid.UUID) (*types.Destination, error) {
	query := `SELECT ` + destinationColumns + ` FROM destinations WHERE id = $1`
	d, err := scanDestination(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get destination by id: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) GetDistinctCities(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "city")
}

func (r *PostgresRepository) GetDistinctCategories(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, "category")
}

func (r *PostgresRepository) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM destinations WHERE %s <> '' ORDER BY %s`, column, column, column)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan distinct %s: %w", column, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate distinct %s: %w", column, err)
	}
	return out, nil
}

func (r *PostgresRepository) GetCityCategoryPairs(ctx context.Context) ([]types.CityCategoryCount, error) {
	query := `
        SELECT city, category, COUNT(*) AS cnt
        FROM destinations
        GROUP BY city, category
        ORDER BY city, category`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query city/category pairs: %w", err)
	}
	defer rows.Close()

	var out []types.CityCategoryCount
	for rows.Next() {
		var p types.CityCategoryCount
		if err := rows.Scan(&p.City, &p.Category, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan city/category pair: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate city/category pairs: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) CountDestinations(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count destinations: %w", err)
	}
	return count, nil
}

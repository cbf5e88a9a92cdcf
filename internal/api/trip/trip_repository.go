package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eyasluna999/wertigo/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	CreateTrip(ctx context.Context, trip *types.Trip) (uuid.UUID, error)
	GetTrip(ctx context.Context, id, userID uuid.UUID) (*types.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID) ([]types.Trip, error)
	DeleteTrip(ctx context.Context, id, userID uuid.UUID) error
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresRepository(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgxpool,
	}
}

func (r *PostgresRepository) CreateTrip(ctx context.Context, trip *types.Trip) (uuid.UUID, error) {
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO trips (user_id, name, destination, start_date, end_date, estimated_cost)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	var id uuid.UUID
	if err = tx.QueryRow(ctx, query,
		trip.UserID, trip.Name, trip.Destination, trip.StartDate, trip.EndDate, trip.EstimatedCost,
	).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert trip: %w", err)
	}

	for _, day := range trip.Days {
		places, err := json.Marshal(day.Places)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal trip day places: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO trip_days (trip_id, day, places) VALUES ($1, $2, $3)`,
			id, day.Day, places,
		); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert trip day: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) GetTrip(ctx context.Context, id, userID uuid.UUID) (*types.Trip, error) {
	query := `
        SELECT id, user_id, name, destination, start_date, end_date, estimated_cost, created_at
        FROM trips
        WHERE id = $1 AND user_id = $2
    `
	var t types.Trip
	err := r.pgpool.QueryRow(ctx, query, id, userID).Scan(
		&t.ID, &t.UserID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate, &t.EstimatedCost, &t.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	rows, err := r.pgpool.Query(ctx,
		`SELECT day, places FROM trip_days WHERE trip_id = $1 ORDER BY day`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day types.TripDay
		var places []byte
		if err := rows.Scan(&day.Day, &places); err != nil {
			return nil, fmt.Errorf("failed to scan trip day: %w", err)
		}
		if err := json.Unmarshal(places, &day.Places); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trip day places: %w", err)
		}
		t.Days = append(t.Days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trip days: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) ListTrips(ctx context.Context, userID uuid.UUID) ([]types.Trip, error) {
	query := `
        SELECT id, user_id, name, destination, start_date, end_date, estimated_cost, created_at
        FROM trips
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []types.Trip
	for rows.Next() {
		var t types.Trip
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate, &t.EstimatedCost, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

func (r *PostgresRepository) DeleteTrip(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

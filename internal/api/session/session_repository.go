package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eyasluna999/wertigo/internal/types"
)

var _ Repository = (*PostgresRepository)(nil)

type Repository interface {
	CreateSession(ctx context.Context) (*types.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error)
	TouchSession(ctx context.Context, id uuid.UUID) error
	LinkUser(ctx context.Context, sessionID, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)
}

type PostgresRepository struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
	ttl    time.Duration
}

func NewPostgresRepository(pgxpool *pgxpool.Pool, ttl time.Duration, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		pgpool: pgxpool,
		ttl:    ttl,
	}
}

func (r *PostgresRepository) CreateSession(ctx context.Context) (*types.Session, error) {
	query := `
        INSERT INTO sessions (id) VALUES (gen_random_uuid())
        RETURNING id, user_id, created_at, last_activity
    `
	var s types.Session
	err := r.pgpool.QueryRow(ctx, query).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.LastActivity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

// GetSession returns the session if it has seen activity within the TTL
// window. Expired sessions read as ErrSessionExpired; reading a live one
// slides its expiry forward.
func (r *PostgresRepository) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	query := `
        SELECT id, user_id, created_at, last_activity
        FROM sessions
        WHERE id = $1
    `
	var s types.Session
	err := r.pgpool.QueryRow(ctx, query, id).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.LastActivity)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if time.Since(s.LastActivity) > r.ttl {
		return nil, types.ErrSessionExpired
	}
	if err := r.TouchSession(ctx, id); err != nil {
		r.logger.WarnContext(ctx, "Failed to touch session", slog.String("session_id", id.String()), slog.Any("error", err))
	}
	return &s, nil
}

func (r *PostgresRepository) TouchSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, `UPDATE sessions SET last_activity = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LinkUser(ctx context.Context, sessionID, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `UPDATE sessions SET user_id = $2 WHERE id = $1`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to link session to user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DeleteExpired removes sessions idle longer than ttl. Run periodically.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM sessions WHERE last_activity < NOW() - $1::interval`,
		fmt.Sprintf("%d seconds", int(ttl.Seconds())),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

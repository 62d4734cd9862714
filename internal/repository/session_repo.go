package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// SessionRepository persiste las sesiones del asistente de valuacion.
type SessionRepository interface {
	Create(ctx context.Context, session domain.ChatSession) error
	GetByID(ctx context.Context, id string) (domain.ChatSession, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.ChatSession) error {
	const query = `
		INSERT INTO chat_sessions (id, user_id, valuation_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	var valuationID interface{}
	if session.ValuationID != "" {
		valuationID = session.ValuationID
	}
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		valuationID,
		session.CreatedAt,
	)
	return err
}

func (r *PgSessionRepository) GetByID(ctx context.Context, id string) (domain.ChatSession, error) {
	const query = `
		SELECT id, user_id, valuation_id, created_at
		FROM chat_sessions
		WHERE id = $1
	`
	var (
		session     domain.ChatSession
		valuationID *string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&valuationID,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ChatSession{}, err
	}
	if valuationID != nil {
		session.ValuationID = *valuationID
	}
	return session, err
}

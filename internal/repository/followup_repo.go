package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

type FollowUpRepository interface {
	Get(ctx context.Context, valuationID string) (domain.FollowUp, error)
	Upsert(ctx context.Context, followUp domain.FollowUp) error
}

type PgFollowUpRepository struct {
	pool *pgxpool.Pool
}

func NewPgFollowUpRepository(pool *pgxpool.Pool) *PgFollowUpRepository {
	return &PgFollowUpRepository{pool: pool}
}

func (r *PgFollowUpRepository) Get(ctx context.Context, valuationID string) (domain.FollowUp, error) {
	const query = `
		SELECT valuation_id, user_id, answers, submitted_at, updated_at
		FROM follow_up_answers
		WHERE valuation_id = $1
	`
	var (
		f       domain.FollowUp
		answers []byte
	)
	err := r.pool.QueryRow(ctx, query, valuationID).Scan(&f.ValuationID, &f.UserID, &answers, &f.SubmittedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FollowUp{}, err
	}
	if err != nil {
		return domain.FollowUp{}, err
	}
	if err := json.Unmarshal(answers, &f.Answers); err != nil {
		return domain.FollowUp{}, err
	}
	return f, nil
}

func (r *PgFollowUpRepository) Upsert(ctx context.Context, f domain.FollowUp) error {
	answers, err := json.Marshal(f.Answers)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO follow_up_answers (valuation_id, user_id, answers, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (valuation_id)
		DO UPDATE SET
			answers = EXCLUDED.answers,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query, f.ValuationID, f.UserID, answers, f.SubmittedAt, f.UpdatedAt)
	return err
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

type ReferralRepository interface {
	Create(ctx context.Context, referral domain.Referral) error
	ListByReferrer(ctx context.Context, referrerID string) ([]domain.Referral, error)
	// Redeem marca como canjeada la invitacion pendiente (referrer, email).
	// Si no existia una invitacion previa, registra una ya canjeada.
	Redeem(ctx context.Context, referral domain.Referral, redeemedBy string, at time.Time) (bool, error)
}

type PgReferralRepository struct {
	pool *pgxpool.Pool
}

func NewPgReferralRepository(pool *pgxpool.Pool) *PgReferralRepository {
	return &PgReferralRepository{pool: pool}
}

const referralColumns = `id, referrer_id, referred_email, code, status, redeemed_by, created_at, redeemed_at`

func (r *PgReferralRepository) Create(ctx context.Context, ref domain.Referral) error {
	const query = `
		INSERT INTO referrals (` + referralColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (referrer_id, referred_email) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		ref.ID, ref.ReferrerID, ref.ReferredEmail, ref.Code, ref.Status, ref.RedeemedBy, ref.CreatedAt, ref.RedeemedAt,
	)
	return err
}

func (r *PgReferralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]domain.Referral, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+referralColumns+`
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(
			&ref.ID, &ref.ReferrerID, &ref.ReferredEmail, &ref.Code, &ref.Status, &ref.RedeemedBy, &ref.CreatedAt, &ref.RedeemedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PgReferralRepository) Redeem(ctx context.Context, ref domain.Referral, redeemedBy string, at time.Time) (bool, error) {
	const query = `
		INSERT INTO referrals (id, referrer_id, referred_email, code, status, redeemed_by, created_at, redeemed_at)
		VALUES ($1, $2, $3, $4, 'redeemed', $5, $6, $6)
		ON CONFLICT (referrer_id, referred_email)
		DO UPDATE SET status = 'redeemed', redeemed_by = EXCLUDED.redeemed_by, redeemed_at = EXCLUDED.redeemed_at
		WHERE referrals.status = 'pending'
	`
	tag, err := r.pool.Exec(ctx, query, ref.ID, ref.ReferrerID, ref.ReferredEmail, ref.Code, redeemedBy, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

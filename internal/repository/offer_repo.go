package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

type OfferRepository interface {
	Create(ctx context.Context, offer domain.Offer) error
	GetByID(ctx context.Context, id string) (domain.Offer, error)
	ListByValuation(ctx context.Context, valuationID string) ([]domain.Offer, error)
	Accept(ctx context.Context, offerID string, at time.Time) error
	UpdateStatus(ctx context.Context, offerID, status string, at time.Time) error
}

type PgOfferRepository struct {
	pool *pgxpool.Pool
}

func NewPgOfferRepository(pool *pgxpool.Pool) *PgOfferRepository {
	return &PgOfferRepository{pool: pool}
}

const offerColumns = `id, dealer_id, valuation_id, amount, message, status, expires_at, created_at, updated_at`

func (r *PgOfferRepository) Create(ctx context.Context, o domain.Offer) error {
	const query = `
		INSERT INTO dealer_offers (` + offerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		o.ID, o.DealerID, o.ValuationID, o.Amount, o.Message, o.Status, o.ExpiresAt, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (r *PgOfferRepository) GetByID(ctx context.Context, id string) (domain.Offer, error) {
	var o domain.Offer
	err := r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM dealer_offers WHERE id = $1`, id).Scan(
		&o.ID, &o.DealerID, &o.ValuationID, &o.Amount, &o.Message, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, err
	}
	return o, err
}

func (r *PgOfferRepository) ListByValuation(ctx context.Context, valuationID string) ([]domain.Offer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+offerColumns+`
		FROM dealer_offers
		WHERE valuation_id = $1
		ORDER BY created_at DESC
	`, valuationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []domain.Offer
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(
			&o.ID, &o.DealerID, &o.ValuationID, &o.Amount, &o.Message, &o.Status, &o.ExpiresAt, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return offers, nil
}

// Accept acepta la oferta y rechaza el resto de ofertas pendientes de la misma valuacion.
func (r *PgOfferRepository) Accept(ctx context.Context, offerID string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var valuationID string
	err = tx.QueryRow(ctx, `
		UPDATE dealer_offers
		SET status = 'accepted', updated_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING valuation_id
	`, offerID, at).Scan(&valuationID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE dealer_offers
		SET status = 'rejected', updated_at = $3
		WHERE valuation_id = $1 AND id <> $2 AND status = 'pending'
	`, valuationID, offerID, at); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgOfferRepository) UpdateStatus(ctx context.Context, offerID, status string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE dealer_offers
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`, offerID, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

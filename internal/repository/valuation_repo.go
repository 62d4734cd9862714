package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// ValuationRepository persiste resultados de valuacion. Los registros son inmutables
// salvo el flag premium.
type ValuationRepository interface {
	Create(ctx context.Context, valuation domain.Valuation) error
	GetByID(ctx context.Context, id string) (domain.Valuation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Valuation, error)
	ListByVIN(ctx context.Context, vin string, limit int) ([]domain.Valuation, error)
	// UnlockPremium marca la valuacion como premium y, si debit no es nil, descuenta
	// el credito en la misma transaccion. Devuelve false si ya era premium.
	UnlockPremium(ctx context.Context, id string, debit *domain.CreditLedgerEntry) (bool, error)
}

type PgValuationRepository struct {
	pool *pgxpool.Pool
}

func NewPgValuationRepository(pool *pgxpool.Pool) *PgValuationRepository {
	return &PgValuationRepository{pool: pool}
}

const valuationColumns = `id, user_id, vehicle, condition_profile, base_value, estimate, price_low, price_high, confidence, adjustments, is_premium, previous_valuation_id, created_at`

func (r *PgValuationRepository) Create(ctx context.Context, v domain.Valuation) error {
	vehicle, err := json.Marshal(v.Vehicle)
	if err != nil {
		return err
	}
	var profile []byte
	if v.Profile != nil {
		if profile, err = json.Marshal(v.Profile); err != nil {
			return err
		}
	}
	adjustments := v.Result.Adjustments
	if adjustments == nil {
		adjustments = []domain.Adjustment{}
	}
	adjJSON, err := json.Marshal(adjustments)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO valuations (
			id, user_id, vin, vehicle, condition_profile, base_value, estimate, price_low, price_high,
			confidence, adjustments, is_premium, previous_valuation_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.pool.Exec(ctx, query,
		v.ID,
		v.UserID,
		v.Vehicle.VIN,
		vehicle,
		profile,
		v.Result.BaseValue,
		v.Result.Estimate,
		v.Result.PriceRange.Low,
		v.Result.PriceRange.High,
		v.Result.Confidence,
		adjJSON,
		v.IsPremium,
		v.PreviousValuationID,
		v.CreatedAt,
	)
	return err
}

func (r *PgValuationRepository) GetByID(ctx context.Context, id string) (domain.Valuation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+valuationColumns+` FROM valuations WHERE id = $1`, id)
	if err != nil {
		return domain.Valuation{}, err
	}
	defer rows.Close()

	vals, err := scanValuations(rows)
	if err != nil {
		return domain.Valuation{}, err
	}
	if len(vals) == 0 {
		return domain.Valuation{}, pgx.ErrNoRows
	}
	return vals[0], nil
}

func (r *PgValuationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Valuation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+valuationColumns+`
		FROM valuations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanValuations(rows)
}

func (r *PgValuationRepository) ListByVIN(ctx context.Context, vin string, limit int) ([]domain.Valuation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+valuationColumns+`
		FROM valuations
		WHERE vin = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, vin, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanValuations(rows)
}

func (r *PgValuationRepository) UnlockPremium(ctx context.Context, id string, debit *domain.CreditLedgerEntry) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE valuations SET is_premium = TRUE WHERE id = $1 AND NOT is_premium`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM valuations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, pgx.ErrNoRows
		}
		return false, nil
	}

	if debit != nil {
		if _, err := (&PgAccountRepository{db: tx}).AddCredits(ctx, *debit); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func scanValuations(rows pgx.Rows) ([]domain.Valuation, error) {
	var out []domain.Valuation
	for rows.Next() {
		var (
			v           domain.Valuation
			vehicle     []byte
			profile     []byte
			adjustments []byte
		)
		err := rows.Scan(
			&v.ID,
			&v.UserID,
			&vehicle,
			&profile,
			&v.Result.BaseValue,
			&v.Result.Estimate,
			&v.Result.PriceRange.Low,
			&v.Result.PriceRange.High,
			&v.Result.Confidence,
			&adjustments,
			&v.IsPremium,
			&v.PreviousValuationID,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vehicle, &v.Vehicle); err != nil {
			return nil, err
		}
		if len(profile) > 0 {
			var p domain.ConditionProfile
			if err := json.Unmarshal(profile, &p); err != nil {
				return nil, err
			}
			v.Profile = &p
		}
		if err := json.Unmarshal(adjustments, &v.Result.Adjustments); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

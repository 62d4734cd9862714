package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"autovalue/internal/domain"
)

// MarketRepository busca avisos comparables por similitud del vector de atributos.
type MarketRepository interface {
	Create(ctx context.Context, listing domain.MarketListing, features pgvector.Vector) error
	FindComparables(ctx context.Context, make, model string, features pgvector.Vector, k int) ([]domain.MarketListing, error)
}

type PgMarketRepository struct {
	pool *pgxpool.Pool
}

func NewPgMarketRepository(pool *pgxpool.Pool) *PgMarketRepository {
	return &PgMarketRepository{pool: pool}
}

func (r *PgMarketRepository) Create(ctx context.Context, l domain.MarketListing, features pgvector.Vector) error {
	const query = `
		INSERT INTO market_listings (id, make, model, year, mileage, price, zip_code, source, features, listed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		l.ID, l.Make, l.Model, l.Year, l.Mileage, l.Price, l.ZipCode, l.Source, features, l.ListedAt,
	)
	return err
}

func (r *PgMarketRepository) FindComparables(ctx context.Context, make, model string, features pgvector.Vector, k int) ([]domain.MarketListing, error) {
	if k <= 0 {
		k = 20
	}
	const query = `
		SELECT id, make, model, year, mileage, price, zip_code, source, listed_at
		FROM market_listings
		WHERE lower(make) = lower($1) AND lower(model) = lower($2)
		ORDER BY features <-> $3
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, query, make, model, features, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.MarketListing
	for rows.Next() {
		var l domain.MarketListing
		if err := rows.Scan(&l.ID, &l.Make, &l.Model, &l.Year, &l.Mileage, &l.Price, &l.ZipCode, &l.Source, &l.ListedAt); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// InventoryRepository maneja el inventario publicado por concesionarios.
type InventoryRepository interface {
	Create(ctx context.Context, item domain.InventoryItem) error
	GetByID(ctx context.Context, id string) (domain.InventoryItem, error)
	ListByDealer(ctx context.Context, dealerID string) ([]domain.InventoryItem, error)
	Update(ctx context.Context, item domain.InventoryItem) error
	Delete(ctx context.Context, id string) error
}

type PgInventoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgInventoryRepository(pool *pgxpool.Pool) *PgInventoryRepository {
	return &PgInventoryRepository{pool: pool}
}

const inventoryColumns = `id, dealer_id, vin, make, model, year, mileage, trim, list_price, status, created_at, updated_at`

func (r *PgInventoryRepository) Create(ctx context.Context, item domain.InventoryItem) error {
	const query = `
		INSERT INTO dealer_inventory (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.DealerID,
		item.VIN,
		item.Make,
		item.Model,
		item.Year,
		item.Mileage,
		item.Trim,
		item.ListPrice,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
	)
	return err
}

func (r *PgInventoryRepository) GetByID(ctx context.Context, id string) (domain.InventoryItem, error) {
	var it domain.InventoryItem
	err := r.pool.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM dealer_inventory WHERE id = $1`, id).Scan(
		&it.ID, &it.DealerID, &it.VIN, &it.Make, &it.Model, &it.Year, &it.Mileage,
		&it.Trim, &it.ListPrice, &it.Status, &it.CreatedAt, &it.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.InventoryItem{}, err
	}
	return it, err
}

func (r *PgInventoryRepository) ListByDealer(ctx context.Context, dealerID string) ([]domain.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+inventoryColumns+`
		FROM dealer_inventory
		WHERE dealer_id = $1
		ORDER BY created_at DESC
	`, dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var it domain.InventoryItem
		if err := rows.Scan(
			&it.ID, &it.DealerID, &it.VIN, &it.Make, &it.Model, &it.Year, &it.Mileage,
			&it.Trim, &it.ListPrice, &it.Status, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PgInventoryRepository) Update(ctx context.Context, item domain.InventoryItem) error {
	const query = `
		UPDATE dealer_inventory
		SET mileage = $2, trim = $3, list_price = $4, status = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Mileage,
		item.Trim,
		item.ListPrice,
		item.Status,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgInventoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dealer_inventory WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

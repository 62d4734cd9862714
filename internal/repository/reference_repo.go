package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// ReferenceRepository expone los catalogos estaticos de marcas, modelos y codigos postales.
type ReferenceRepository interface {
	ListMakes(ctx context.Context) ([]domain.VehicleMake, error)
	ListModels(ctx context.Context, makeID int) ([]domain.VehicleModel, error)
	GetModel(ctx context.Context, modelID int) (domain.VehicleModel, error)
	GetZip(ctx context.Context, code string) (domain.ZipCode, error)
}

type PgReferenceRepository struct {
	pool *pgxpool.Pool
}

func NewPgReferenceRepository(pool *pgxpool.Pool) *PgReferenceRepository {
	return &PgReferenceRepository{pool: pool}
}

func (r *PgReferenceRepository) ListMakes(ctx context.Context) ([]domain.VehicleMake, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM vehicle_makes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var makes []domain.VehicleMake
	for rows.Next() {
		var m domain.VehicleMake
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		makes = append(makes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return makes, nil
}

func (r *PgReferenceRepository) ListModels(ctx context.Context, makeID int) ([]domain.VehicleModel, error) {
	const query = `
		SELECT id, make_id, name, first_year, last_year
		FROM vehicle_models
		WHERE make_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, makeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []domain.VehicleModel
	for rows.Next() {
		var m domain.VehicleModel
		if err := rows.Scan(&m.ID, &m.MakeID, &m.Name, &m.FirstYear, &m.LastYear); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

func (r *PgReferenceRepository) GetModel(ctx context.Context, modelID int) (domain.VehicleModel, error) {
	const query = `
		SELECT id, make_id, name, first_year, last_year
		FROM vehicle_models
		WHERE id = $1
	`
	var m domain.VehicleModel
	err := r.pool.QueryRow(ctx, query, modelID).Scan(&m.ID, &m.MakeID, &m.Name, &m.FirstYear, &m.LastYear)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.VehicleModel{}, err
	}
	return m, err
}

func (r *PgReferenceRepository) GetZip(ctx context.Context, code string) (domain.ZipCode, error) {
	const query = `
		SELECT code, city, state, latitude, longitude, market_index
		FROM zip_codes
		WHERE code = $1
	`
	var z domain.ZipCode
	err := r.pool.QueryRow(ctx, query, code).Scan(&z.Code, &z.City, &z.State, &z.Latitude, &z.Longitude, &z.MarketIndex)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ZipCode{}, err
	}
	return z, err
}

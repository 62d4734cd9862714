package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// VINCacheRepository guarda decodificaciones de VIN exitosas.
// La vigencia (TTL) la decide el servicio a partir de DecodedAt.
type VINCacheRepository interface {
	Get(ctx context.Context, vin string) (domain.DecodedVehicle, error)
	Upsert(ctx context.Context, decoded domain.DecodedVehicle) error
}

type PgVINCacheRepository struct {
	pool *pgxpool.Pool
}

func NewPgVINCacheRepository(pool *pgxpool.Pool) *PgVINCacheRepository {
	return &PgVINCacheRepository{pool: pool}
}

func (r *PgVINCacheRepository) Get(ctx context.Context, vin string) (domain.DecodedVehicle, error) {
	const query = `
		SELECT payload, source, decoded_at
		FROM vin_decodes
		WHERE vin = $1
	`
	var (
		payload []byte
		decoded domain.DecodedVehicle
	)
	err := r.pool.QueryRow(ctx, query, vin).Scan(&payload, &decoded.Source, &decoded.DecodedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DecodedVehicle{}, err
	}
	if err != nil {
		return domain.DecodedVehicle{}, err
	}
	var cached domain.DecodedVehicle
	if err := json.Unmarshal(payload, &cached); err != nil {
		return domain.DecodedVehicle{}, err
	}
	cached.Source = decoded.Source
	cached.DecodedAt = decoded.DecodedAt
	return cached, nil
}

func (r *PgVINCacheRepository) Upsert(ctx context.Context, decoded domain.DecodedVehicle) error {
	payload, err := json.Marshal(decoded)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO vin_decodes (vin, payload, source, decoded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vin)
		DO UPDATE SET
			payload = EXCLUDED.payload,
			source = EXCLUDED.source,
			decoded_at = EXCLUDED.decoded_at
	`
	_, err = r.pool.Exec(ctx, query, decoded.Vehicle.VIN, payload, decoded.Source, decoded.DecodedAt)
	return err
}

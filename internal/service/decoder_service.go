package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
	"autovalue/internal/vpic"
)

// vinDecoder es la fuente externa (vPIC) detras del cache.
type vinDecoder interface {
	DecodeVIN(ctx context.Context, vin string) (vpic.Result, error)
}

// DecoderService decodifica VINs: cache en Postgres, luego vPIC, luego tabla WMI estatica.
// Nunca falla por indisponibilidad externa; solo rechaza VINs mal formados.
type DecoderService struct {
	logger   *zap.Logger
	cache    repository.VINCacheRepository
	external vinDecoder
	cacheTTL time.Duration
	now      func() time.Time
}

func NewDecoderService(logger *zap.Logger, cache repository.VINCacheRepository, external vinDecoder, cacheTTL time.Duration) *DecoderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * 24 * time.Hour
	}
	return &DecoderService{
		logger:   logger,
		cache:    cache,
		external: external,
		cacheTTL: cacheTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DecoderService) Decode(ctx context.Context, rawVIN string) (domain.DecodedVehicle, error) {
	vin, err := NormalizeVIN(rawVIN)
	if err != nil {
		return domain.DecodedVehicle{}, err
	}
	now := s.now()
	checkOK := !checkDigitApplies(vin) || validCheckDigit(vin)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, vin)
		switch {
		case err == nil && now.Sub(cached.DecodedAt) < s.cacheTTL:
			cached.Source = domain.DecodeSourceCache
			cached.CheckDigitValid = checkOK
			return cached, nil
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			s.logger.Warn("vin cache read failed", zap.String("vin", vin), zap.Error(err))
		}
	}

	if s.external != nil {
		res, err := s.external.DecodeVIN(ctx, vin)
		if err == nil {
			decoded := domain.DecodedVehicle{
				Vehicle: domain.VehicleDescriptor{
					VIN:          vin,
					Make:         titleCase(res.Make),
					Model:        strings.TrimSpace(res.Model),
					Year:         res.Year(),
					Trim:         strings.TrimSpace(res.Trim),
					BodyType:     strings.TrimSpace(res.BodyClass),
					FuelType:     strings.TrimSpace(res.FuelTypePrimary),
					Transmission: strings.TrimSpace(res.TransmissionStyle),
				},
				Manufacturer:    strings.TrimSpace(res.Manufacturer),
				Source:          domain.DecodeSourceVPIC,
				CheckDigitValid: checkOK,
				DecodedAt:       now,
			}
			if s.cache != nil {
				if err := s.cache.Upsert(ctx, decoded); err != nil {
					s.logger.Warn("vin cache write failed", zap.String("vin", vin), zap.Error(err))
				}
			}
			return decoded, nil
		}
		if ctx.Err() != nil {
			return domain.DecodedVehicle{}, fmt.Errorf("decode vin: %w", ctx.Err())
		}
		s.logger.Warn("vpic decode failed, using fallback", zap.String("vin", vin), zap.Error(err))
	}

	return s.fallback(vin, checkOK, now), nil
}

func (s *DecoderService) fallback(vin string, checkOK bool, now time.Time) domain.DecodedVehicle {
	manufacturer := manufacturerFromWMI(vin)
	return domain.DecodedVehicle{
		Vehicle: domain.VehicleDescriptor{
			VIN:  vin,
			Make: manufacturer,
			Year: modelYearFromVIN(vin, now.Year()+1),
		},
		Manufacturer:    manufacturer,
		Source:          domain.DecodeSourceFallback,
		CheckDigitValid: checkOK,
		DecodedAt:       now,
	}
}

// titleCase convierte "HONDA" o "LAND ROVER" a "Honda" / "Land Rover".
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

// referenceCache es el subconjunto de go-redis que usa el cache de referencia.
type referenceCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// cacheEnvelope envuelve las listas cacheadas con version y fecha de escritura.
type cacheEnvelope[T any] struct {
	Version  string    `json:"version"`
	StoredAt time.Time `json:"stored_at"`
	Items    []T       `json:"items"`
}

var zipRe = regexp.MustCompile(`^[0-9]{5}$`)

// ReferenceService expone marcas, modelos, años y codigos postales.
// Las listas de marcas y modelos se leen primero de Redis.
type ReferenceService struct {
	logger  *zap.Logger
	repo    repository.ReferenceRepository
	cache   referenceCache
	version string
	ttl     time.Duration
	now     func() time.Time
}

func NewReferenceService(logger *zap.Logger, repo repository.ReferenceRepository, cache referenceCache, version string, ttl time.Duration) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(version) == "" {
		version = "v1"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReferenceService{
		logger:  logger,
		repo:    repo,
		cache:   cache,
		version: version,
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReferenceService) ListMakes(ctx context.Context) ([]domain.VehicleMake, error) {
	return cachedList(ctx, s, s.key("makes"), func(ctx context.Context) ([]domain.VehicleMake, error) {
		return s.repo.ListMakes(ctx)
	})
}

func (s *ReferenceService) ListModels(ctx context.Context, makeID int) ([]domain.VehicleModel, error) {
	return cachedList(ctx, s, s.key("models", strconv.Itoa(makeID)), func(ctx context.Context) ([]domain.VehicleModel, error) {
		return s.repo.ListModels(ctx, makeID)
	})
}

// ListYears devuelve los años de produccion del modelo, del mas reciente al mas antiguo.
func (s *ReferenceService) ListYears(ctx context.Context, modelID int) ([]int, error) {
	model, err := s.repo.GetModel(ctx, modelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get model: %w", err)
	}
	return model.Years(), nil
}

func (s *ReferenceService) LookupZip(ctx context.Context, code string) (domain.ZipCode, error) {
	code = strings.TrimSpace(code)
	if !zipRe.MatchString(code) {
		return domain.ZipCode{}, ErrInvalidZip
	}
	zip, err := s.repo.GetZip(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ZipCode{}, ErrZipNotFound
	}
	if err != nil {
		return domain.ZipCode{}, fmt.Errorf("get zip: %w", err)
	}
	return zip, nil
}

// Invalidate borra todas las claves de la version actual.
func (s *ReferenceService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	pattern := "ref:" + s.version + ":*"
	var cursor uint64
	for {
		keys, next, err := s.cache.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan reference cache: %w", err)
		}
		if len(keys) > 0 {
			if err := s.cache.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete reference cache: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *ReferenceService) key(kind string, parts ...string) string {
	k := "ref:" + s.version + ":" + kind
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func cachedList[T any](ctx context.Context, s *ReferenceService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		if items, ok := readEnvelope[T](ctx, s, key); ok {
			return items, nil
		}
	}

	items, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if items == nil {
		items = []T{}
	}

	if s.cache != nil {
		env := cacheEnvelope[T]{Version: s.version, StoredAt: s.now(), Items: items}
		payload, err := json.Marshal(env)
		if err == nil {
			err = s.cache.Set(ctx, key, payload, s.ttl).Err()
		}
		if err != nil {
			s.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return items, nil
}

func readEnvelope[T any](ctx context.Context, s *ReferenceService, key string) ([]T, bool) {
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var env cacheEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Version != s.version || !env.StoredAt.Add(s.ttl).After(s.now()) {
		return nil, false
	}
	return env.Items, true
}

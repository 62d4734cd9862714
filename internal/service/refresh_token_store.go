package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshTokenStore registra los jti de refresh tokens emitidos. Cada jti se
// consume una sola vez: la rotacion y el logout lo sacan del store.
type RefreshTokenStore interface {
	Store(jti, userID string, ttl time.Duration) error
	// Consume borra el jti y devuelve el usuario dueño; "" si no existia o expiro.
	Consume(jti string) (string, error)
	Revoke(jti string) error
}

const (
	defaultRefreshTTL   = 30 * 24 * time.Hour
	refreshKeyPrefix    = "autovalue:refresh:"
	refreshStoreTimeout = 500 * time.Millisecond
)

func normalizeJTI(jti string) string {
	return strings.TrimSpace(jti)
}

func refreshTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultRefreshTTL
	}
	return ttl
}

type refreshEntry struct {
	userID    string
	expiresAt time.Time
}

type memoryRefreshTokenStore struct {
	mu    sync.Mutex
	items map[string]refreshEntry
	now   func() time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		items: make(map[string]refreshEntry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryRefreshTokenStore) Store(jti, userID string, ttl time.Duration) error {
	jti = normalizeJTI(jti)
	if jti == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, e := range s.items {
		if now.After(e.expiresAt) {
			delete(s.items, k)
		}
	}
	s.items[jti] = refreshEntry{userID: userID, expiresAt: now.Add(refreshTTL(ttl))}
	return nil
}

func (s *memoryRefreshTokenStore) Consume(jti string) (string, error) {
	jti = normalizeJTI(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[jti]
	if !ok {
		return "", nil
	}
	delete(s.items, jti)
	if s.now().After(e.expiresAt) {
		return "", nil
	}
	return e.userID, nil
}

func (s *memoryRefreshTokenStore) Revoke(jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, normalizeJTI(jti))
	return nil
}

type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// redisRefreshTokenStore consume con GETDEL: de dos rotaciones simultaneas del
// mismo jti solo una recibe el usuario.
type redisRefreshTokenStore struct {
	client redisKVClient
	prefix string
}

func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{
		client: client,
		prefix: refreshKeyPrefix,
	}
}

func (s *redisRefreshTokenStore) Store(jti, userID string, ttl time.Duration) error {
	jti = normalizeJTI(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshStoreTimeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, userID, refreshTTL(ttl)).Err()
}

func (s *redisRefreshTokenStore) Consume(jti string) (string, error) {
	jti = normalizeJTI(jti)
	if jti == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshStoreTimeout)
	defer cancel()
	userID, err := s.client.GetDel(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *redisRefreshTokenStore) Revoke(jti string) error {
	jti = normalizeJTI(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshStoreTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}

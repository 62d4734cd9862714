package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"autovalue/internal/domain"
)

// fakeRedisKV guarda valor y TTL por clave; GetDel es atomico bajo el mutex.
type fakeRedisKV struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedisKV() *fakeRedisKV {
	return &fakeRedisKV{vals: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.vals[key] = value.(string)
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedisKV) GetDel(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.vals[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	delete(f.vals, key)
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.vals[k]; ok {
			delete(f.vals, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestMemoryRefreshTokenStore_ConsumeReturnsOwnerOnce(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	if err := store.Store(" jti-1 ", "u1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	owner, err := store.Consume("jti-1")
	if err != nil || owner != "u1" {
		t.Fatalf("expected owner u1, got %q,%v", owner, err)
	}
	owner, err = store.Consume("jti-1")
	if err != nil || owner != "" {
		t.Fatalf("second consume must miss, got %q,%v", owner, err)
	}
}

func TestMemoryRefreshTokenStore_TTL(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{items: make(map[string]refreshEntry), now: func() time.Time { return now }}

	if err := store.Store("short", "u1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := store.Store("default", "u1", 0); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if got := store.items["default"].expiresAt.Sub(now); got != defaultRefreshTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultRefreshTTL, got)
	}

	now = now.Add(2 * time.Minute)
	if owner, _ := store.Consume("short"); owner != "" {
		t.Fatalf("expired jti must not be consumed, got %q", owner)
	}
	if owner, _ := store.Consume("default"); owner != "u1" {
		t.Fatalf("expected default ttl jti alive, got %q", owner)
	}
}

func TestMemoryRefreshTokenStore_StorePurgesExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{items: make(map[string]refreshEntry), now: func() time.Time { return now }}

	_ = store.Store("old", "u1", time.Second)
	now = now.Add(time.Minute)
	_ = store.Store("new", "u1", time.Minute)

	if _, ok := store.items["old"]; ok {
		t.Fatalf("expected expired entry purged")
	}
	if len(store.items) != 1 {
		t.Fatalf("expected one live entry, got %d", len(store.items))
	}
}

func TestMemoryRefreshTokenStore_RevokeAndBlankJTI(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	if err := store.Store("   ", "u1", time.Minute); err != nil {
		t.Fatalf("blank jti store should be no-op, got %v", err)
	}
	if owner, _ := store.Consume(""); owner != "" {
		t.Fatalf("blank jti must never be stored, got %q", owner)
	}

	_ = store.Store("jti-2", "u1", time.Minute)
	if err := store.Revoke(" jti-2 "); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if owner, _ := store.Consume("jti-2"); owner != "" {
		t.Fatalf("expected revoked jti absent, got %q", owner)
	}
}

func TestRedisRefreshTokenStore_TrimsJTIAndDefaultsTTL(t *testing.T) {
	kv := newFakeRedisKV()
	store := &redisRefreshTokenStore{client: kv, prefix: refreshKeyPrefix}

	if err := store.Store(" j1 ", "u1", 0); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if got := kv.vals["autovalue:refresh:j1"]; got != "u1" {
		t.Fatalf("expected trimmed key holding owner, got %+v", kv.vals)
	}
	if got := kv.ttls["autovalue:refresh:j1"]; got != defaultRefreshTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultRefreshTTL, got)
	}

	if err := store.Store("j2", "u1", time.Hour); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if got := kv.ttls["autovalue:refresh:j2"]; got != time.Hour {
		t.Fatalf("expected explicit ttl kept, got %v", got)
	}

	owner, err := store.Consume("j1 ")
	if err != nil || owner != "u1" {
		t.Fatalf("expected owner u1, got %q,%v", owner, err)
	}
	if err := store.Revoke("\tj2"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(kv.vals) != 0 {
		t.Fatalf("expected store emptied, got %+v", kv.vals)
	}
}

func TestRedisRefreshTokenStore_ConcurrentConsumeWinsOnce(t *testing.T) {
	kv := newFakeRedisKV()
	store := &redisRefreshTokenStore{client: kv, prefix: refreshKeyPrefix}
	_ = store.Store("rot", "u1", time.Minute)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner, err := store.Consume("rot")
			if err != nil {
				t.Errorf("consume: %v", err)
				return
			}
			if owner != "" {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one consumer to win, got %d", wins)
	}
}

func TestRedisRefreshTokenStore_ErrorPathsAndBlankJTI(t *testing.T) {
	kv := newFakeRedisKV()
	kv.err = errors.New("redis down")
	store := &redisRefreshTokenStore{client: kv, prefix: refreshKeyPrefix}

	if err := store.Store(" ", "u1", time.Minute); err != nil {
		t.Fatalf("blank jti store should be no-op, got %v", err)
	}
	if owner, err := store.Consume(""); err != nil || owner != "" {
		t.Fatalf("blank jti consume should be empty,nil; got %q,%v", owner, err)
	}
	if err := store.Revoke(""); err != nil {
		t.Fatalf("blank jti revoke should be no-op, got %v", err)
	}

	if err := store.Store("j3", "u1", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	if _, err := store.Consume("j3"); err == nil {
		t.Fatalf("expected consume error")
	}
	if err := store.Revoke("j3"); err == nil {
		t.Fatalf("expected revoke error")
	}
}

func TestJWTService_RefreshRejectsForeignOwner(t *testing.T) {
	store := NewMemoryRefreshTokenStore()
	svc := NewJWTServiceWithStore("secret", 15*time.Minute, 30*time.Minute, store)
	pair, err := svc.GeneratePair(domain.User{ID: "u1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	claims, err := svc.parseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	_ = store.Store(claims.ID, "u2", time.Minute)

	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid for jti owned by another user, got %v", err)
	}
}

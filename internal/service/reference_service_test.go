package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"autovalue/internal/domain"
)

type fakeReferenceCache struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeReferenceCache() *fakeReferenceCache {
	return &fakeReferenceCache{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeReferenceCache) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeReferenceCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeReferenceCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeReferenceCache) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func newTestReferenceService(repo *mockReferenceRepo, cache *fakeReferenceCache) *ReferenceService {
	svc := NewReferenceService(nil, repo, cache, "v2", time.Hour)
	svc.now = fixedClock
	return svc
}

func TestReferenceService_ListMakesUsesCache(t *testing.T) {
	repo := &mockReferenceRepo{makes: []domain.VehicleMake{{ID: 1, Name: "Honda"}, {ID: 2, Name: "Toyota"}}}
	cache := newFakeReferenceCache()
	svc := newTestReferenceService(repo, cache)
	ctx := context.Background()

	first, err := svc.ListMakes(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.ListMakes(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached makes differ (-first +second):\n%s", diff)
	}
	if repo.makesCalls != 1 {
		t.Fatalf("expected one repository call, got %d", repo.makesCalls)
	}
	if cache.ttls["ref:v2:makes"] != time.Hour {
		t.Fatalf("expected ttl to be set, got %v", cache.ttls["ref:v2:makes"])
	}
}

func TestReferenceService_StaleEnvelopeIsIgnored(t *testing.T) {
	repo := &mockReferenceRepo{makes: []domain.VehicleMake{{ID: 1, Name: "Honda"}}}
	cache := newFakeReferenceCache()
	svc := newTestReferenceService(repo, cache)

	cases := []cacheEnvelope[domain.VehicleMake]{
		{Version: "v1", StoredAt: fixedNow, Items: []domain.VehicleMake{{ID: 9, Name: "Old"}}},
		{Version: "v2", StoredAt: fixedNow.Add(-2 * time.Hour), Items: []domain.VehicleMake{{ID: 9, Name: "Old"}}},
	}
	for i, env := range cases {
		raw, _ := json.Marshal(env)
		cache.data["ref:v2:makes"] = string(raw)
		makes, err := svc.ListMakes(context.Background())
		if err != nil {
			t.Fatalf("case %d: unexpected error: %v", i, err)
		}
		if len(makes) != 1 || makes[0].Name != "Honda" {
			t.Fatalf("case %d: expected fresh makes, got %+v", i, makes)
		}
	}
	if repo.makesCalls != 2 {
		t.Fatalf("expected two repository calls, got %d", repo.makesCalls)
	}
}

func TestReferenceService_WorksWithoutCache(t *testing.T) {
	repo := &mockReferenceRepo{models: map[int][]domain.VehicleModel{}}
	svc := NewReferenceService(nil, repo, nil, "", 0)

	models, err := svc.ListModels(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if models == nil || len(models) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", models)
	}
}

func TestReferenceService_ListYearsAndZip(t *testing.T) {
	repo := &mockReferenceRepo{
		models: map[int][]domain.VehicleModel{1: {{ID: 10, MakeID: 1, Name: "Civic", FirstYear: 2020, LastYear: 2023}}},
		zips:   map[string]domain.ZipCode{"94107": {Code: "94107", City: "San Francisco", State: "CA"}},
	}
	svc := newTestReferenceService(repo, newFakeReferenceCache())
	ctx := context.Background()

	years, err := svc.ListYears(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]int{2023, 2022, 2021, 2020}, years); diff != "" {
		t.Fatalf("years mismatch (-want +got):\n%s", diff)
	}
	if _, err := svc.ListYears(ctx, 99); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}

	if zip, err := svc.LookupZip(ctx, " 94107 "); err != nil || zip.City != "San Francisco" {
		t.Fatalf("unexpected zip lookup: %+v %v", zip, err)
	}
	if _, err := svc.LookupZip(ctx, "9410"); !errors.Is(err, ErrInvalidZip) {
		t.Fatalf("expected ErrInvalidZip, got %v", err)
	}
	if _, err := svc.LookupZip(ctx, "00000"); !errors.Is(err, ErrZipNotFound) {
		t.Fatalf("expected ErrZipNotFound, got %v", err)
	}
}

func TestReferenceService_Invalidate(t *testing.T) {
	cache := newFakeReferenceCache()
	cache.data["ref:v2:makes"] = "{}"
	cache.data["ref:v2:models:1"] = "{}"
	cache.data["other:key"] = "x"
	svc := newTestReferenceService(&mockReferenceRepo{}, cache)

	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected only unrelated key to remain, got %v", cache.data)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"autovalue/internal/domain"
	"autovalue/internal/vpic"
)

type fakeVINDecoder struct {
	result vpic.Result
	err    error
	calls  int
}

func (f *fakeVINDecoder) DecodeVIN(_ context.Context, _ string) (vpic.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestDecoder(cache *mockVINCache, ext *fakeVINDecoder) *DecoderService {
	svc := NewDecoderService(nil, cache, ext, 24*time.Hour)
	svc.now = fixedClock
	return svc
}

func TestDecoderService_VPICThenCache(t *testing.T) {
	cache := newMockVINCache()
	ext := &fakeVINDecoder{result: vpic.Result{Make: "HONDA", Model: "Accord", ModelYear: "2003", Trim: "EX"}}
	svc := newTestDecoder(cache, ext)
	ctx := context.Background()

	first, err := svc.Decode(ctx, " 1hgcm82633a004352 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Source != domain.DecodeSourceVPIC {
		t.Fatalf("expected vpic source, got %s", first.Source)
	}
	if first.Vehicle.Make != "Honda" || first.Vehicle.Year != 2003 || first.Vehicle.VIN != "1HGCM82633A004352" {
		t.Fatalf("unexpected vehicle %+v", first.Vehicle)
	}
	if !first.CheckDigitValid {
		t.Fatalf("expected valid check digit")
	}
	if cache.upserts != 1 {
		t.Fatalf("expected cache upsert, got %d", cache.upserts)
	}

	second, err := svc.Decode(ctx, "1HGCM82633A004352")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Source != domain.DecodeSourceCache {
		t.Fatalf("expected cache source, got %s", second.Source)
	}
	if ext.calls != 1 {
		t.Fatalf("expected a single external call, got %d", ext.calls)
	}
}

func TestDecoderService_ExpiredCacheRefetches(t *testing.T) {
	cache := newMockVINCache()
	cache.items["1HGCM82633A004352"] = domain.DecodedVehicle{
		Vehicle:   domain.VehicleDescriptor{VIN: "1HGCM82633A004352", Make: "Stale"},
		DecodedAt: fixedNow.Add(-48 * time.Hour),
	}
	ext := &fakeVINDecoder{result: vpic.Result{Make: "HONDA", Model: "Accord", ModelYear: "2003"}}
	svc := newTestDecoder(cache, ext)

	got, err := svc.Decode(context.Background(), "1HGCM82633A004352")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != domain.DecodeSourceVPIC || got.Vehicle.Make != "Honda" {
		t.Fatalf("expected fresh vpic decode, got %+v", got)
	}
}

func TestDecoderService_FallbackWhenVPICFails(t *testing.T) {
	cache := newMockVINCache()
	ext := &fakeVINDecoder{err: errors.New("connection refused")}
	svc := newTestDecoder(cache, ext)

	got, err := svc.Decode(context.Background(), "2HGFC2F59JH000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != domain.DecodeSourceFallback {
		t.Fatalf("expected fallback, got %s", got.Source)
	}
	if got.Vehicle.Make != "Honda" || got.Vehicle.Year != 2018 {
		t.Fatalf("unexpected fallback vehicle %+v", got.Vehicle)
	}
	if got.CheckDigitValid {
		t.Fatalf("expected invalid check digit")
	}
	if cache.upserts != 0 {
		t.Fatalf("fallback decodes must not be cached")
	}
}

func TestDecoderService_RejectsMalformedVIN(t *testing.T) {
	svc := newTestDecoder(newMockVINCache(), &fakeVINDecoder{})
	for _, vin := range []string{"", "TOO-SHORT", "1HGCM82633A00435I", "1HGCM82633A0043521"} {
		if _, err := svc.Decode(context.Background(), vin); !errors.Is(err, ErrInvalidVIN) {
			t.Fatalf("%q: expected ErrInvalidVIN, got %v", vin, err)
		}
	}
}

func TestDecoderService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestDecoder(newMockVINCache(), &fakeVINDecoder{err: context.Canceled})

	if _, err := svc.Decode(ctx, "1HGCM82633A004352"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestModelYearFromVIN(t *testing.T) {
	cases := []struct {
		vin     string
		maxYear int
		want    int
	}{
		{"1HGCM82633A004352", 2026, 2003},
		{"2HGFC2F52JH000001", 2026, 2018},
		{"1HGCM82633U004352", 2026, 0},
	}
	for _, tc := range cases {
		if got := modelYearFromVIN(tc.vin, tc.maxYear); got != tc.want {
			t.Fatalf("%s/%d: expected %d, got %d", tc.vin, tc.maxYear, tc.want, got)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"HONDA":         "Honda",
		"LAND  ROVER":   "Land Rover",
		"ŠKODA":         "Škoda",
		"ÉTOILE MOTORS": "Étoile Motors",
		"citroën":       "Citroën",
		"":              "",
	}
	for in, want := range cases {
		got := titleCase(in)
		if got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("titleCase(%q) produced invalid utf-8", in)
		}
	}
}

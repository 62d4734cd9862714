package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

const (
	PositionBelowMarket = "below_market"
	PositionAtMarket    = "at_market"
	PositionAboveMarket = "above_market"

	defaultComparables = 20
	// atMarketBand es la desviacion relativa a la mediana que todavia cuenta como "at market".
	atMarketBand = 0.05
)

var conditionFeature = map[domain.Condition]float32{
	domain.ConditionExcellent: 1.0,
	domain.ConditionGood:      0.75,
	domain.ConditionFair:      0.5,
	domain.ConditionPoor:      0.25,
}

var titleFeature = map[domain.TitleStatus]float32{
	domain.TitleClean:   1.0,
	domain.TitleRebuilt: 0.5,
	domain.TitleSalvage: 0.25,
	domain.TitleLemon:   0.2,
}

// MarketListingInput es un aviso de mercado cargado por un admin.
type MarketListingInput struct {
	Make        string
	Model       string
	Year        int
	Mileage     int
	Price       int
	ZipCode     string
	Source      string
	Condition   string
	TitleStatus string
	ListedAt    time.Time
}

// MarketService compara una valuacion premium contra avisos similares.
type MarketService struct {
	logger *zap.Logger
	repo   repository.MarketRepository
	k      int
}

func NewMarketService(logger *zap.Logger, repo repository.MarketRepository) *MarketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketService{logger: logger, repo: repo, k: defaultComparables}
}

func (s *MarketService) AddListing(ctx context.Context, in MarketListingInput) (domain.MarketListing, error) {
	errs := ValidationErrors{}
	if strings.TrimSpace(in.Make) == "" {
		errs.add("make", "required")
	}
	if strings.TrimSpace(in.Model) == "" {
		errs.add("model", "required")
	}
	if in.Year < 1900 {
		errs.add("year", "must be 1900 or later")
	}
	if in.Price <= 0 {
		errs.add("price", "must be positive")
	}
	if in.Mileage < 0 {
		errs.add("mileage", "must not be negative")
	}
	if err := errs.orNil(); err != nil {
		return domain.MarketListing{}, err
	}
	if in.ListedAt.IsZero() {
		in.ListedAt = time.Now().UTC()
	}

	listing := domain.MarketListing{
		ID:       uuid.NewString(),
		Make:     strings.TrimSpace(in.Make),
		Model:    strings.TrimSpace(in.Model),
		Year:     in.Year,
		Mileage:  in.Mileage,
		Price:    in.Price,
		ZipCode:  strings.TrimSpace(in.ZipCode),
		Source:   strings.TrimSpace(in.Source),
		ListedAt: in.ListedAt,
	}
	var cond *domain.Condition
	if c, ok := domain.ParseCondition(in.Condition); ok {
		cond = &c
	}
	var title *domain.TitleStatus
	if t, ok := domain.ParseTitleStatus(in.TitleStatus); ok {
		title = &t
	}
	if err := s.repo.Create(ctx, listing, featureVector(in.Year, in.Mileage, cond, title)); err != nil {
		return domain.MarketListing{}, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// Compare busca comparables por distancia L2 del vector de atributos y resume precios.
func (s *MarketService) Compare(ctx context.Context, v domain.Valuation) (domain.MarketComparison, error) {
	if !v.IsPremium {
		return domain.MarketComparison{}, ErrPremiumRequired
	}
	var (
		cond  *domain.Condition
		title *domain.TitleStatus
	)
	if v.Profile != nil {
		cond, title = v.Profile.Condition, v.Profile.TitleStatus
	}
	features := featureVector(v.Vehicle.Year, v.Vehicle.Mileage, cond, title)

	listings, err := s.repo.FindComparables(ctx, v.Vehicle.Make, v.Vehicle.Model, features, s.k)
	if err != nil {
		return domain.MarketComparison{}, fmt.Errorf("find comparables: %w", err)
	}
	return summarizeMarket(v, listings), nil
}

func summarizeMarket(v domain.Valuation, listings []domain.MarketListing) domain.MarketComparison {
	cmp := domain.MarketComparison{
		ValuationID: v.ID,
		Estimate:    v.Result.Estimate,
		SampleSize:  len(listings),
		Comparables: listings,
		Position:    PositionAtMarket,
	}
	if cmp.Comparables == nil {
		cmp.Comparables = []domain.MarketListing{}
	}
	if len(listings) == 0 {
		return cmp
	}

	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = float64(l.Price)
	}
	sort.Float64s(prices)

	cmp.MeanPrice = stat.Mean(prices, nil)
	if len(prices) > 1 {
		cmp.StdDevPrice = stat.StdDev(prices, nil)
	}
	cmp.LowerQuartile = stat.Quantile(0.25, stat.Empirical, prices, nil)
	cmp.Median = stat.Quantile(0.5, stat.Empirical, prices, nil)
	cmp.UpperQuartile = stat.Quantile(0.75, stat.Empirical, prices, nil)
	cmp.PercentileRank = stat.CDF(float64(v.Result.Estimate), stat.Empirical, prices, nil) * 100

	if cmp.Median > 0 {
		diff := (float64(v.Result.Estimate) - cmp.Median) / cmp.Median
		switch {
		case diff < -atMarketBand:
			cmp.Position = PositionBelowMarket
		case diff > atMarketBand:
			cmp.Position = PositionAboveMarket
		}
	}
	return cmp
}

// featureVector normaliza año, kilometraje, condicion y titulo a [0,1].
func featureVector(year, mileage int, cond *domain.Condition, title *domain.TitleStatus) pgvector.Vector {
	y := float32(year-1980) / 50
	m := float32(mileage) / 300000
	if m > 1 {
		m = 1
	}
	c := float32(0.75)
	if cond != nil {
		if f, ok := conditionFeature[*cond]; ok {
			c = f
		}
	}
	t := float32(1.0)
	if title != nil {
		if f, ok := titleFeature[*title]; ok {
			t = f
		}
	}
	return pgvector.NewVector([]float32{clamp01(y), m, c, t})
}

func clamp01(f float32) float32 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

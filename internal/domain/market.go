package domain

import "time"

// MarketListing es un aviso comparable del mercado.
type MarketListing struct {
	ID       string    `json:"id"`
	Make     string    `json:"make"`
	Model    string    `json:"model"`
	Year     int       `json:"year"`
	Mileage  int       `json:"mileage"`
	Price    int       `json:"price"`
	ZipCode  string    `json:"zip_code,omitempty"`
	Source   string    `json:"source,omitempty"`
	ListedAt time.Time `json:"listed_at"`
}

// MarketComparison resume los comparables frente a la estimacion.
type MarketComparison struct {
	ValuationID    string          `json:"valuation_id"`
	Estimate       int             `json:"estimate"`
	SampleSize     int             `json:"sample_size"`
	MeanPrice      float64         `json:"mean_price"`
	StdDevPrice    float64         `json:"std_dev_price"`
	LowerQuartile  float64         `json:"lower_quartile"`
	Median         float64         `json:"median"`
	UpperQuartile  float64         `json:"upper_quartile"`
	PercentileRank float64         `json:"percentile_rank"`
	Position       string          `json:"position"` // "below_market", "at_market", "above_market"
	Comparables    []MarketListing `json:"comparables"`
}

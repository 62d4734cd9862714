package domain

import "time"

// Nombres de factores, en el orden en que se aplican.
const (
	FactorAge         = "age"
	FactorMileage     = "mileage"
	FactorCondition   = "condition"
	FactorAccidents   = "accidents"
	FactorTitle       = "title"
	FactorMaintenance = "maintenance"
)

// Adjustment es un factor multiplicativo aplicado durante el scoring.
type Adjustment struct {
	Factor      string  `json:"factor"`
	Multiplier  float64 `json:"multiplier"`
	Impact      int     `json:"impact"`
	Description string  `json:"description"`
}

type PriceRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// ValuationResult es la salida de una invocacion del scoring.
type ValuationResult struct {
	BaseValue   int          `json:"base_value"`
	Estimate    int          `json:"estimate"`
	Confidence  int          `json:"confidence"`
	Adjustments []Adjustment `json:"adjustments"`
	PriceRange  PriceRange   `json:"price_range"`
}

// Valuation es el registro persistido. Nunca se actualiza salvo el flag premium;
// un nuevo scoring crea otro registro enlazado por PreviousValuationID.
type Valuation struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"user_id"`
	Vehicle             VehicleDescriptor `json:"vehicle"`
	Profile             *ConditionProfile `json:"condition_profile,omitempty"`
	Result              ValuationResult   `json:"result"`
	IsPremium           bool              `json:"is_premium"`
	PreviousValuationID *string           `json:"previous_valuation_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

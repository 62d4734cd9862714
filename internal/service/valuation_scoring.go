package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"autovalue/internal/domain"
)

const (
	// DefaultBasePrice es un valor de referencia fijo, no un modelo de mercado.
	DefaultBasePrice     = 15000.0
	expectedMilesPerYear = 12000

	confidenceBase       = 75
	confidenceCap        = 100
	priceRangeLowFactor  = 0.85
	priceRangeHighFactor = 1.15
)

var conditionMultipliers = map[domain.Condition]float64{
	domain.ConditionExcellent: 1.15,
	domain.ConditionGood:      1.0,
	domain.ConditionFair:      0.85,
	domain.ConditionPoor:      0.65,
}

var titleMultipliers = map[domain.TitleStatus]float64{
	domain.TitleClean:   1.0,
	domain.TitleSalvage: 0.65,
	domain.TitleRebuilt: 0.75,
	domain.TitleLemon:   0.60,
}

var maintenanceMultipliers = map[domain.MaintenanceLevel]float64{
	domain.MaintenanceComplete: 1.05,
	domain.MaintenancePartial:  1.0,
	domain.MaintenanceNone:     0.95,
}

// ValuationScorer calcula la estimacion a partir del vehiculo y su perfil.
// Es una funcion pura: sin I/O y sin estados de error.
type ValuationScorer struct {
	BasePrice float64
}

// Score aplica los multiplicadores en orden fijo:
// edad -> kilometraje -> condicion -> accidentes -> titulo -> mantenimiento.
func (s ValuationScorer) Score(vehicle domain.VehicleDescriptor, profile *domain.ConditionProfile, asOf time.Time) domain.ValuationResult {
	base := s.BasePrice
	if base <= 0 {
		base = DefaultBasePrice
	}

	acc := adjustmentAccumulator{subtotal: base, product: 1.0}

	age := vehicleAge(vehicle.Year, asOf)
	acc.apply(domain.FactorAge, ageMultiplier(age), fmt.Sprintf("Vehicle is %d years old", age))

	if vehicle.Mileage > 0 {
		expected := age * expectedMilesPerYear
		acc.apply(domain.FactorMileage, mileageMultiplier(vehicle.Mileage, age),
			fmt.Sprintf("%d miles against %d expected for its age", vehicle.Mileage, expected))
	}

	if profile != nil {
		if profile.Condition != nil {
			if m, ok := conditionMultipliers[*profile.Condition]; ok {
				acc.apply(domain.FactorCondition, m, fmt.Sprintf("Reported condition: %s", *profile.Condition))
			}
		}
		if profile.AccidentCount != nil && *profile.AccidentCount >= 0 {
			n := *profile.AccidentCount
			acc.apply(domain.FactorAccidents, accidentMultiplier(n), accidentDescription(n))
		}
		if profile.TitleStatus != nil {
			if m, ok := titleMultipliers[*profile.TitleStatus]; ok {
				acc.apply(domain.FactorTitle, m, fmt.Sprintf("Title status: %s", *profile.TitleStatus))
			}
		}
		if profile.Maintenance != nil {
			if m, ok := maintenanceMultipliers[*profile.Maintenance]; ok {
				acc.apply(domain.FactorMaintenance, m, fmt.Sprintf("Maintenance records: %s", *profile.Maintenance))
			}
		}
	}

	estimate := int(math.Round(base * acc.product))
	return domain.ValuationResult{
		BaseValue:   int(math.Round(base)),
		Estimate:    estimate,
		Confidence:  ConfidenceScore(profile),
		Adjustments: acc.adjustments,
		PriceRange: domain.PriceRange{
			Low:  int(math.Round(float64(estimate) * priceRangeLowFactor)),
			High: int(math.Round(float64(estimate) * priceRangeHighFactor)),
		},
	}
}

type adjustmentAccumulator struct {
	subtotal    float64
	product     float64
	adjustments []domain.Adjustment
}

// apply ignora multiplicadores neutros; el impacto se mide sobre el subtotal previo.
func (a *adjustmentAccumulator) apply(factor string, multiplier float64, description string) {
	if multiplier == 1.0 {
		return
	}
	a.adjustments = append(a.adjustments, domain.Adjustment{
		Factor:      factor,
		Multiplier:  multiplier,
		Impact:      int(math.Round((multiplier - 1) * a.subtotal)),
		Description: description,
	})
	a.subtotal *= multiplier
	a.product *= multiplier
}

func vehicleAge(year int, asOf time.Time) int {
	if year <= 0 {
		return 0
	}
	age := asOf.Year() - year
	if age < 0 {
		return 0
	}
	return age
}

// ageMultiplier deprecia 10% por año hasta el quinto y 5% por año despues, con piso 0.1.
func ageMultiplier(age int) float64 {
	var m float64
	if age <= 5 {
		m = 1 - 0.10*float64(age)
	} else {
		m = 0.5 - 0.05*float64(age-5)
	}
	return math.Max(m, 0.1)
}

// mileageMultiplier escala la desviacion contra age*12000 a 0.2 por cada 100k millas, con piso 0.5.
func mileageMultiplier(mileage, age int) float64 {
	deviation := float64(mileage - age*expectedMilesPerYear)
	return math.Max(1-0.2*deviation/100000, 0.5)
}

func accidentMultiplier(count int) float64 {
	switch {
	case count <= 0:
		return 1.05
	case count == 1:
		return 0.92
	default:
		return 0.80
	}
}

func accidentDescription(count int) string {
	switch count {
	case 0:
		return "No reported accidents"
	case 1:
		return "One reported accident"
	default:
		return fmt.Sprintf("%d reported accidents", count)
	}
}

// ConfidenceScore suma bonos fijos por cada campo opcional informado, con tope 100.
func ConfidenceScore(profile *domain.ConditionProfile) int {
	score := confidenceBase
	if profile == nil {
		return score
	}
	if profile.Condition != nil {
		score += 8
	}
	if profile.AccidentCount != nil {
		score += 5
	}
	if profile.TitleStatus != nil {
		score += 4
	}
	if profile.Maintenance != nil {
		score += 3
	}
	if profile.ZipCode != nil && strings.TrimSpace(*profile.ZipCode) != "" {
		score += 2
	}
	if profile.PhotoCount > 0 {
		score += 3
	}
	if score > confidenceCap {
		score = confidenceCap
	}
	return score
}

package domain

import "strings"

// VehicleDescriptor identifica el vehiculo a valuar. Se obtiene del
// decodificador de VIN o de la carga manual y no se modifica despues.
type VehicleDescriptor struct {
	VIN          string `json:"vin,omitempty"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Mileage      int    `json:"mileage,omitempty"`
	Trim         string `json:"trim,omitempty"`
	BodyType     string `json:"body_type,omitempty"`
	FuelType     string `json:"fuel_type,omitempty"`
	Transmission string `json:"transmission,omitempty"`
}

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

type TitleStatus string

const (
	TitleClean   TitleStatus = "clean"
	TitleSalvage TitleStatus = "salvage"
	TitleRebuilt TitleStatus = "rebuilt"
	TitleLemon   TitleStatus = "lemon"
)

type MaintenanceLevel string

const (
	MaintenanceComplete MaintenanceLevel = "complete"
	MaintenancePartial  MaintenanceLevel = "partial"
	MaintenanceNone     MaintenanceLevel = "none"
)

// ParseCondition normaliza el valor recibido; ok=false si no es un valor conocido.
func ParseCondition(raw string) (Condition, bool) {
	c := Condition(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return c, true
	}
	return "", false
}

func ParseTitleStatus(raw string) (TitleStatus, bool) {
	t := TitleStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case TitleClean, TitleSalvage, TitleRebuilt, TitleLemon:
		return t, true
	}
	return "", false
}

func ParseMaintenanceLevel(raw string) (MaintenanceLevel, bool) {
	m := MaintenanceLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MaintenanceComplete, MaintenancePartial, MaintenanceNone:
		return m, true
	}
	return "", false
}

// ConditionProfile agrupa las respuestas opcionales del usuario.
// Cada campo es independiente; nil significa "multiplicador neutro".
type ConditionProfile struct {
	Condition     *Condition        `json:"condition,omitempty"`
	AccidentCount *int              `json:"accident_count,omitempty"`
	TitleStatus   *TitleStatus      `json:"title_status,omitempty"`
	Maintenance   *MaintenanceLevel `json:"maintenance,omitempty"`
	ZipCode       *string           `json:"zip_code,omitempty"`
	PhotoCount    int               `json:"photo_count,omitempty"`
}

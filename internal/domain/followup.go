package domain

import "time"

// Secciones del cuestionario de seguimiento, en orden de presentacion.
const (
	SectionCondition      = "condition"
	SectionMileage        = "mileage"
	SectionAccidents      = "accidents"
	SectionMaintenance    = "maintenance"
	SectionTires          = "tires"
	SectionServiceHistory = "service_history"
)

var FollowUpSections = []string{
	SectionCondition,
	SectionMileage,
	SectionAccidents,
	SectionMaintenance,
	SectionTires,
	SectionServiceHistory,
}

// FollowUpAnswers guarda las respuestas parciales de una valuacion.
type FollowUpAnswers struct {
	Condition      *Condition        `json:"condition,omitempty"`
	Mileage        *int              `json:"mileage,omitempty"`
	AccidentCount  *int              `json:"accident_count,omitempty"`
	TitleStatus    *TitleStatus      `json:"title_status,omitempty"`
	Maintenance    *MaintenanceLevel `json:"maintenance,omitempty"`
	TireCondition  *string           `json:"tire_condition,omitempty"`
	ServiceRecords *bool             `json:"service_records,omitempty"`
	ZipCode        *string           `json:"zip_code,omitempty"`
	PhotoCount     *int              `json:"photo_count,omitempty"`
}

type FollowUp struct {
	ValuationID string          `json:"valuation_id"`
	UserID      string          `json:"user_id"`
	Answers     FollowUpAnswers `json:"answers"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CompletedSections devuelve las secciones respondidas, en orden.
func (a FollowUpAnswers) CompletedSections() []string {
	done := make([]string, 0, len(FollowUpSections))
	for _, s := range FollowUpSections {
		if a.sectionDone(s) {
			done = append(done, s)
		}
	}
	return done
}

func (a FollowUpAnswers) sectionDone(section string) bool {
	switch section {
	case SectionCondition:
		return a.Condition != nil
	case SectionMileage:
		return a.Mileage != nil
	case SectionAccidents:
		return a.AccidentCount != nil
	case SectionMaintenance:
		return a.Maintenance != nil
	case SectionTires:
		return a.TireCondition != nil
	case SectionServiceHistory:
		return a.ServiceRecords != nil
	}
	return false
}

// Progress es el porcentaje entero de secciones completas.
func (a FollowUpAnswers) Progress() int {
	return len(a.CompletedSections()) * 100 / len(FollowUpSections)
}

// Merge sobrescribe solo los campos no nulos del patch.
func (a FollowUpAnswers) Merge(patch FollowUpAnswers) FollowUpAnswers {
	if patch.Condition != nil {
		a.Condition = patch.Condition
	}
	if patch.Mileage != nil {
		a.Mileage = patch.Mileage
	}
	if patch.AccidentCount != nil {
		a.AccidentCount = patch.AccidentCount
	}
	if patch.TitleStatus != nil {
		a.TitleStatus = patch.TitleStatus
	}
	if patch.Maintenance != nil {
		a.Maintenance = patch.Maintenance
	}
	if patch.TireCondition != nil {
		a.TireCondition = patch.TireCondition
	}
	if patch.ServiceRecords != nil {
		a.ServiceRecords = patch.ServiceRecords
	}
	if patch.ZipCode != nil {
		a.ZipCode = patch.ZipCode
	}
	if patch.PhotoCount != nil {
		a.PhotoCount = patch.PhotoCount
	}
	return a
}

// ToProfile convierte las respuestas en el perfil que consume el scoring.
func (a FollowUpAnswers) ToProfile() *ConditionProfile {
	p := &ConditionProfile{
		Condition:     a.Condition,
		AccidentCount: a.AccidentCount,
		TitleStatus:   a.TitleStatus,
		Maintenance:   a.Maintenance,
		ZipCode:       a.ZipCode,
	}
	if a.PhotoCount != nil {
		p.PhotoCount = *a.PhotoCount
	}
	return p
}

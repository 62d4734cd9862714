package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

// minSubmitProgress es el avance minimo (en %) para re-valuar con las respuestas.
const minSubmitProgress = 50

var tireConditions = map[string]bool{"new": true, "good": true, "worn": true, "replace": true}

// FollowUpPatch llega del formulario; solo los campos presentes se aplican.
type FollowUpPatch struct {
	Condition      *string
	Mileage        *int
	AccidentCount  *int
	TitleStatus    *string
	Maintenance    *string
	TireCondition  *string
	ServiceRecords *bool
	ZipCode        *string
	PhotoCount     *int
}

// FollowUpView es el estado del cuestionario que ve el cliente.
type FollowUpView struct {
	domain.FollowUp
	Progress          int      `json:"progress"`
	CompletedSections []string `json:"completed_sections"`
	Sections          []string `json:"sections"`
}

type FollowUpService struct {
	logger     *zap.Logger
	repo       repository.FollowUpRepository
	valuations *ValuationService
	now        func() time.Time
}

func NewFollowUpService(logger *zap.Logger, repo repository.FollowUpRepository, valuations *ValuationService) *FollowUpService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowUpService{
		logger:     logger,
		repo:       repo,
		valuations: valuations,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *FollowUpService) Get(ctx context.Context, userID, role, valuationID string) (FollowUpView, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return FollowUpView{}, err
	}
	f, err := s.load(ctx, v)
	if err != nil {
		return FollowUpView{}, err
	}
	return newFollowUpView(f), nil
}

// SaveAnswers aplica el patch sobre las respuestas guardadas. Los errores por campo
// se devuelven juntos como ValidationErrors y no se persiste nada.
func (s *FollowUpService) SaveAnswers(ctx context.Context, userID, role, valuationID string, patch FollowUpPatch) (FollowUpView, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return FollowUpView{}, err
	}
	answers, err := validatePatch(patch)
	if err != nil {
		return FollowUpView{}, err
	}
	f, err := s.load(ctx, v)
	if err != nil {
		return FollowUpView{}, err
	}
	f.Answers = f.Answers.Merge(answers)
	f.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, f); err != nil {
		return FollowUpView{}, fmt.Errorf("save follow-up: %w", err)
	}
	return newFollowUpView(f), nil
}

// Submit re-valua el vehiculo con las respuestas y devuelve la nueva valuacion.
func (s *FollowUpService) Submit(ctx context.Context, userID, role, valuationID string) (domain.Valuation, error) {
	v, err := s.valuations.GetOwned(ctx, userID, role, valuationID)
	if err != nil {
		return domain.Valuation{}, err
	}
	f, err := s.load(ctx, v)
	if err != nil {
		return domain.Valuation{}, err
	}
	if f.Answers.Condition == nil || f.Answers.Progress() < minSubmitProgress {
		return domain.Valuation{}, ErrFollowUpIncomplete
	}

	vehicle := v.Vehicle
	if f.Answers.Mileage != nil {
		vehicle.Mileage = *f.Answers.Mileage
	}
	prev := v
	prev.Vehicle = vehicle
	next, err := s.valuations.Rescore(ctx, prev, f.Answers.ToProfile())
	if err != nil {
		return domain.Valuation{}, err
	}

	now := s.now()
	f.SubmittedAt = &now
	f.UpdatedAt = now
	if err := s.repo.Upsert(ctx, f); err != nil {
		s.logger.Warn("follow-up submit not recorded", zap.String("valuation_id", v.ID), zap.Error(err))
	}
	return next, nil
}

func (s *FollowUpService) load(ctx context.Context, v domain.Valuation) (domain.FollowUp, error) {
	f, err := s.repo.Get(ctx, v.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FollowUp{ValuationID: v.ID, UserID: v.UserID, UpdatedAt: s.now()}, nil
	}
	if err != nil {
		return domain.FollowUp{}, fmt.Errorf("get follow-up: %w", err)
	}
	return f, nil
}

func newFollowUpView(f domain.FollowUp) FollowUpView {
	return FollowUpView{
		FollowUp:          f,
		Progress:          f.Answers.Progress(),
		CompletedSections: f.Answers.CompletedSections(),
		Sections:          domain.FollowUpSections,
	}
}

func validatePatch(p FollowUpPatch) (domain.FollowUpAnswers, error) {
	errs := ValidationErrors{}
	var a domain.FollowUpAnswers

	if p.Condition != nil {
		if c, ok := domain.ParseCondition(*p.Condition); ok {
			a.Condition = &c
		} else {
			errs.add("condition", "must be one of excellent, good, fair, poor")
		}
	}
	if p.Mileage != nil {
		if *p.Mileage < 0 || *p.Mileage > 1_000_000 {
			errs.add("mileage", "must be between 0 and 1000000")
		} else {
			a.Mileage = p.Mileage
		}
	}
	if p.AccidentCount != nil {
		if *p.AccidentCount < 0 || *p.AccidentCount > 20 {
			errs.add("accident_count", "must be between 0 and 20")
		} else {
			a.AccidentCount = p.AccidentCount
		}
	}
	if p.TitleStatus != nil {
		if t, ok := domain.ParseTitleStatus(*p.TitleStatus); ok {
			a.TitleStatus = &t
		} else {
			errs.add("title_status", "must be one of clean, salvage, rebuilt, lemon")
		}
	}
	if p.Maintenance != nil {
		if m, ok := domain.ParseMaintenanceLevel(*p.Maintenance); ok {
			a.Maintenance = &m
		} else {
			errs.add("maintenance", "must be one of complete, partial, none")
		}
	}
	if p.TireCondition != nil {
		tc := strings.ToLower(strings.TrimSpace(*p.TireCondition))
		if tireConditions[tc] {
			a.TireCondition = &tc
		} else {
			errs.add("tire_condition", "must be one of new, good, worn, replace")
		}
	}
	if p.ServiceRecords != nil {
		a.ServiceRecords = p.ServiceRecords
	}
	if p.ZipCode != nil {
		zip := strings.TrimSpace(*p.ZipCode)
		if zipRe.MatchString(zip) {
			a.ZipCode = &zip
		} else {
			errs.add("zip_code", "must be 5 digits")
		}
	}
	if p.PhotoCount != nil {
		if *p.PhotoCount < 0 || *p.PhotoCount > 50 {
			errs.add("photo_count", "must be between 0 and 50")
		} else {
			a.PhotoCount = p.PhotoCount
		}
	}
	if err := errs.orNil(); err != nil {
		return domain.FollowUpAnswers{}, err
	}
	return a, nil
}

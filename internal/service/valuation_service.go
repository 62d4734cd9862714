package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

// CreateValuationInput es la carga manual o decodificada del vehiculo y sus respuestas opcionales.
// Los valores de enum desconocidos se ignoran (multiplicador neutro).
type CreateValuationInput struct {
	Vehicle       domain.VehicleDescriptor
	Condition     string
	AccidentCount *int
	TitleStatus   string
	Maintenance   string
	ZipCode       string
	PhotoCount    int
}

type ValuationService struct {
	logger *zap.Logger
	repo   repository.ValuationRepository
	scorer ValuationScorer
	now    func() time.Time
}

func NewValuationService(logger *zap.Logger, repo repository.ValuationRepository, scorer ValuationScorer) *ValuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValuationService{
		logger: logger,
		repo:   repo,
		scorer: scorer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ValuationService) Create(ctx context.Context, userID string, input CreateValuationInput) (domain.Valuation, error) {
	vehicle, err := s.validateVehicle(input.Vehicle)
	if err != nil {
		return domain.Valuation{}, err
	}
	profile, err := buildProfile(input)
	if err != nil {
		return domain.Valuation{}, err
	}
	return s.score(ctx, userID, vehicle, profile, nil)
}

// Estimate valida y puntua sin persistir nada.
func (s *ValuationService) Estimate(input CreateValuationInput) (domain.VehicleDescriptor, domain.ValuationResult, error) {
	vehicle, err := s.validateVehicle(input.Vehicle)
	if err != nil {
		return domain.VehicleDescriptor{}, domain.ValuationResult{}, err
	}
	profile, err := buildProfile(input)
	if err != nil {
		return domain.VehicleDescriptor{}, domain.ValuationResult{}, err
	}
	return vehicle, s.scorer.Score(vehicle, profile, s.now()), nil
}

// Rescore crea una valuacion nueva enlazada a la anterior con otro perfil de condicion.
func (s *ValuationService) Rescore(ctx context.Context, previous domain.Valuation, profile *domain.ConditionProfile) (domain.Valuation, error) {
	prevID := previous.ID
	return s.score(ctx, previous.UserID, previous.Vehicle, profile, &prevID)
}

func (s *ValuationService) score(ctx context.Context, userID string, vehicle domain.VehicleDescriptor, profile *domain.ConditionProfile, previousID *string) (domain.Valuation, error) {
	now := s.now()
	v := domain.Valuation{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Vehicle:             vehicle,
		Profile:             profile,
		Result:              s.scorer.Score(vehicle, profile, now),
		PreviousValuationID: previousID,
		CreatedAt:           now,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return domain.Valuation{}, fmt.Errorf("create valuation: %w", err)
	}
	s.logger.Info("valuation created",
		zap.String("valuation_id", v.ID),
		zap.String("user_id", userID),
		zap.Int("estimate", v.Result.Estimate),
		zap.Int("confidence", v.Result.Confidence),
	)
	return v, nil
}

func (s *ValuationService) Get(ctx context.Context, id string) (domain.Valuation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Valuation{}, ErrValuationNotFound
	}
	v, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Valuation{}, ErrValuationNotFound
	}
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("get valuation: %w", err)
	}
	return v, nil
}

// GetOwned devuelve la valuacion solo a su dueño o a un admin.
func (s *ValuationService) GetOwned(ctx context.Context, userID, role, id string) (domain.Valuation, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return domain.Valuation{}, err
	}
	if v.UserID != userID && role != domain.RoleAdmin {
		return domain.Valuation{}, ErrForbidden
	}
	return v, nil
}

func (s *ValuationService) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Valuation, error) {
	return s.repo.ListByUser(ctx, userID, clampLimit(limit))
}

func (s *ValuationService) ListByVIN(ctx context.Context, rawVIN string, limit int) ([]domain.Valuation, error) {
	vin, err := NormalizeVIN(rawVIN)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByVIN(ctx, vin, clampLimit(limit))
}

func (s *ValuationService) validateVehicle(v domain.VehicleDescriptor) (domain.VehicleDescriptor, error) {
	errs := ValidationErrors{}
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Trim = strings.TrimSpace(v.Trim)
	if v.Make == "" {
		errs.add("make", "required")
	}
	if v.Model == "" {
		errs.add("model", "required")
	}
	maxYear := s.now().Year() + 1
	if v.Year < 1900 || v.Year > maxYear {
		errs.add("year", fmt.Sprintf("must be between 1900 and %d", maxYear))
	}
	if v.Mileage < 0 {
		errs.add("mileage", "must not be negative")
	}
	if strings.TrimSpace(v.VIN) != "" {
		vin, err := NormalizeVIN(v.VIN)
		if err != nil {
			errs.add("vin", "must be 17 characters without I, O or Q")
		}
		v.VIN = vin
	}
	if err := errs.orNil(); err != nil {
		return domain.VehicleDescriptor{}, err
	}
	return v, nil
}

func buildProfile(input CreateValuationInput) (*domain.ConditionProfile, error) {
	errs := ValidationErrors{}
	p := &domain.ConditionProfile{PhotoCount: input.PhotoCount}
	if c, ok := domain.ParseCondition(input.Condition); ok {
		p.Condition = &c
	}
	if t, ok := domain.ParseTitleStatus(input.TitleStatus); ok {
		p.TitleStatus = &t
	}
	if m, ok := domain.ParseMaintenanceLevel(input.Maintenance); ok {
		p.Maintenance = &m
	}
	if input.AccidentCount != nil {
		if *input.AccidentCount < 0 {
			errs.add("accident_count", "must not be negative")
		} else {
			n := *input.AccidentCount
			p.AccidentCount = &n
		}
	}
	if zip := strings.TrimSpace(input.ZipCode); zip != "" {
		if !zipRe.MatchString(zip) {
			errs.add("zip_code", "must be 5 digits")
		} else {
			p.ZipCode = &zip
		}
	}
	if input.PhotoCount < 0 {
		errs.add("photo_count", "must not be negative")
	}
	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return p, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

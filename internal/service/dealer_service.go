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

const (
	defaultOfferTTL = 72 * time.Hour
	maxOfferTTL     = 30 * 24 * time.Hour
)

type InventoryInput struct {
	VIN       string
	Make      string
	Model     string
	Year      int
	Mileage   int
	Trim      string
	ListPrice int
	Status    string
}

type OfferInput struct {
	ValuationID    string
	Amount         int
	Message        string
	ExpiresInHours int
}

// DealerService gestiona inventario de concesionarios y ofertas sobre valuaciones.
type DealerService struct {
	logger     *zap.Logger
	inventory  repository.InventoryRepository
	offers     repository.OfferRepository
	accounts   repository.AccountRepository
	valuations *ValuationService
	now        func() time.Time
}

func NewDealerService(
	logger *zap.Logger,
	inventory repository.InventoryRepository,
	offers repository.OfferRepository,
	accounts repository.AccountRepository,
	valuations *ValuationService,
) *DealerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DealerService{
		logger:     logger,
		inventory:  inventory,
		offers:     offers,
		accounts:   accounts,
		valuations: valuations,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *DealerService) CreateItem(ctx context.Context, dealerID string, in InventoryInput) (domain.InventoryItem, error) {
	item, err := validateInventory(in, true)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	now := s.now()
	item.ID = uuid.NewString()
	item.DealerID = dealerID
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = domain.InventoryAvailable
	}
	if err := s.inventory.Create(ctx, item); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("create inventory: %w", err)
	}
	return item, nil
}

func (s *DealerService) ListItems(ctx context.Context, dealerID string) ([]domain.InventoryItem, error) {
	items, err := s.inventory.ListByDealer(ctx, dealerID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	if items == nil {
		items = []domain.InventoryItem{}
	}
	return items, nil
}

func (s *DealerService) GetItem(ctx context.Context, dealerID, id string) (domain.InventoryItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.InventoryItem{}, ErrInventoryNotFound
	}
	item, err := s.inventory.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.InventoryItem{}, ErrInventoryNotFound
	}
	if err != nil {
		return domain.InventoryItem{}, fmt.Errorf("get inventory: %w", err)
	}
	if item.DealerID != dealerID {
		return domain.InventoryItem{}, ErrForbidden
	}
	return item, nil
}

// UpdateItem solo permite cambiar kilometraje, version, precio y estado.
func (s *DealerService) UpdateItem(ctx context.Context, dealerID, id string, in InventoryInput) (domain.InventoryItem, error) {
	item, err := s.GetItem(ctx, dealerID, id)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	patch, err := validateInventory(in, false)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	if in.Mileage > 0 {
		item.Mileage = patch.Mileage
	}
	if patch.Trim != "" {
		item.Trim = patch.Trim
	}
	if patch.ListPrice > 0 {
		item.ListPrice = patch.ListPrice
	}
	if patch.Status != "" {
		item.Status = patch.Status
	}
	item.UpdatedAt = s.now()
	if err := s.inventory.Update(ctx, item); err != nil {
		return domain.InventoryItem{}, fmt.Errorf("update inventory: %w", err)
	}
	return item, nil
}

func (s *DealerService) DeleteItem(ctx context.Context, dealerID, id string) error {
	if _, err := s.GetItem(ctx, dealerID, id); err != nil {
		return err
	}
	if err := s.inventory.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}
	return nil
}

// CreateOffer requiere suscripcion de concesionario activa.
func (s *DealerService) CreateOffer(ctx context.Context, dealerID string, in OfferInput) (domain.Offer, error) {
	account, err := s.accounts.GetByUserID(ctx, dealerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Offer{}, fmt.Errorf("get account: %w", err)
	}
	if !account.HasActiveSubscription() {
		return domain.Offer{}, ErrSubscriptionInactive
	}

	errs := ValidationErrors{}
	if in.Amount <= 0 {
		errs.add("amount", "must be positive")
	}
	if len(in.Message) > 1000 {
		errs.add("message", "must be at most 1000 characters")
	}
	if in.ExpiresInHours < 0 {
		errs.add("expires_in_hours", "must not be negative")
	}
	if err := errs.orNil(); err != nil {
		return domain.Offer{}, err
	}

	v, err := s.valuations.Get(ctx, in.ValuationID)
	if err != nil {
		return domain.Offer{}, err
	}
	if v.UserID == dealerID {
		return domain.Offer{}, ErrForbidden
	}

	ttl := defaultOfferTTL
	if in.ExpiresInHours > 0 {
		hours := min(in.ExpiresInHours, int(maxOfferTTL/time.Hour))
		ttl = time.Duration(hours) * time.Hour
	}
	now := s.now()
	offer := domain.Offer{
		ID:          uuid.NewString(),
		DealerID:    dealerID,
		ValuationID: v.ID,
		Amount:      in.Amount,
		Message:     strings.TrimSpace(in.Message),
		Status:      domain.OfferPending,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return domain.Offer{}, fmt.Errorf("create offer: %w", err)
	}
	s.logger.Info("offer created",
		zap.String("offer_id", offer.ID),
		zap.String("dealer_id", dealerID),
		zap.String("valuation_id", v.ID),
		zap.Int("amount", offer.Amount),
	)
	return offer, nil
}

// ListOffers devuelve las ofertas de la valuacion con el estado efectivo (expired derivado).
func (s *DealerService) ListOffers(ctx context.Context, userID, role, valuationID string) ([]domain.Offer, error) {
	if _, err := s.valuations.GetOwned(ctx, userID, role, valuationID); err != nil {
		return nil, err
	}
	offers, err := s.offers.ListByValuation(ctx, valuationID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	now := s.now()
	for i := range offers {
		offers[i].Status = offers[i].EffectiveStatus(now)
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	return offers, nil
}

// RespondOffer acepta o rechaza una oferta pendiente. Aceptar rechaza el resto de pendientes.
func (s *DealerService) RespondOffer(ctx context.Context, userID, role, offerID string, accept bool) (domain.Offer, error) {
	if _, err := uuid.Parse(offerID); err != nil {
		return domain.Offer{}, ErrOfferNotFound
	}
	offer, err := s.offers.GetByID(ctx, offerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, ErrOfferNotFound
	}
	if err != nil {
		return domain.Offer{}, fmt.Errorf("get offer: %w", err)
	}
	if _, err := s.valuations.GetOwned(ctx, userID, role, offer.ValuationID); err != nil {
		return domain.Offer{}, err
	}

	now := s.now()
	if offer.EffectiveStatus(now) != domain.OfferPending {
		return domain.Offer{}, ErrOfferNotPending
	}

	if accept {
		err = s.offers.Accept(ctx, offer.ID, now)
		offer.Status = domain.OfferAccepted
	} else {
		err = s.offers.UpdateStatus(ctx, offer.ID, domain.OfferRejected, now)
		offer.Status = domain.OfferRejected
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Offer{}, ErrOfferNotPending
	}
	if err != nil {
		return domain.Offer{}, fmt.Errorf("respond offer: %w", err)
	}
	offer.UpdatedAt = now
	return offer, nil
}

func validateInventory(in InventoryInput, create bool) (domain.InventoryItem, error) {
	errs := ValidationErrors{}
	item := domain.InventoryItem{
		Make:      strings.TrimSpace(in.Make),
		Model:     strings.TrimSpace(in.Model),
		Year:      in.Year,
		Mileage:   in.Mileage,
		Trim:      strings.TrimSpace(in.Trim),
		ListPrice: in.ListPrice,
		Status:    strings.ToLower(strings.TrimSpace(in.Status)),
	}
	if create {
		vin, err := NormalizeVIN(in.VIN)
		if err != nil {
			errs.add("vin", "must be 17 characters without I, O or Q")
		}
		item.VIN = vin
		if item.Make == "" {
			errs.add("make", "required")
		}
		if item.Model == "" {
			errs.add("model", "required")
		}
		if item.Year < 1900 {
			errs.add("year", "must be 1900 or later")
		}
		if item.ListPrice <= 0 {
			errs.add("list_price", "must be positive")
		}
	} else if item.ListPrice < 0 {
		errs.add("list_price", "must be positive")
	}
	if item.Mileage < 0 {
		errs.add("mileage", "must not be negative")
	}
	switch item.Status {
	case "", domain.InventoryAvailable, domain.InventoryPending, domain.InventorySold:
	default:
		errs.add("status", "must be one of available, pending, sold")
	}
	if err := errs.orNil(); err != nil {
		return domain.InventoryItem{}, err
	}
	return item, nil
}

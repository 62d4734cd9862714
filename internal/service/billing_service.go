package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

const (
	checkoutKindPremium = "premium"
	checkoutKindCredits = "credits"
)

// BillingService procesa los webhooks de pagos y el desbloqueo de informes premium.
type BillingService struct {
	logger     *zap.Logger
	accounts   repository.AccountRepository
	valuations repository.ValuationRepository
	secret     string
	now        func() time.Time
}

func NewBillingService(logger *zap.Logger, accounts repository.AccountRepository, valuations repository.ValuationRepository, webhookSecret string) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		logger:     logger,
		accounts:   accounts,
		valuations: valuations,
		secret:     webhookSecret,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type checkoutSessionPayload struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Metadata map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type invoicePayload struct {
	ID                  string `json:"id"`
	Customer            string `json:"customer"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// HandleWebhook verifica la firma y aplica el evento una sola vez por id.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Warn("stripe webhook rejected", zap.Error(err))
		return ErrInvalidSignature
	}

	applied, err := s.accounts.ApplyEventOnce(ctx, event.ID, string(event.Type), func(ctx context.Context, accounts repository.AccountRepository) error {
		return s.apply(ctx, accounts, event)
	})
	if err != nil {
		return fmt.Errorf("apply event: %w", err)
	}
	if !applied {
		s.logger.Info("stripe event already processed", zap.String("event_id", event.ID))
	}
	return nil
}

func (s *BillingService) apply(ctx context.Context, accounts repository.AccountRepository, event stripe.Event) error {
	if event.Data == nil {
		return nil
	}
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var cs checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		return s.applyCheckout(ctx, accounts, event.ID, cs)

	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		status := subscriptionStatus(sub.Status)
		if event.Type == stripe.EventTypeCustomerSubscriptionDeleted {
			status = domain.SubscriptionCanceled
		}
		account, err := s.resolveAccount(ctx, accounts, sub.Metadata["account_id"], sub.Customer)
		if err != nil {
			return s.skipUnknownAccount(event, err)
		}
		return accounts.SetSubscriptionStatus(ctx, account.ID, status, sub.Customer)

	case stripe.EventTypeInvoicePaymentFailed:
		var inv invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		accountID := ""
		if inv.SubscriptionDetails != nil {
			accountID = inv.SubscriptionDetails.Metadata["account_id"]
		}
		account, err := s.resolveAccount(ctx, accounts, accountID, inv.Customer)
		if err != nil {
			return s.skipUnknownAccount(event, err)
		}
		return accounts.SetSubscriptionStatus(ctx, account.ID, domain.SubscriptionPastDue, inv.Customer)
	}

	s.logger.Debug("stripe event ignored", zap.String("type", string(event.Type)))
	return nil
}

func (s *BillingService) applyCheckout(ctx context.Context, accounts repository.AccountRepository, eventID string, cs checkoutSessionPayload) error {
	account, err := s.resolveAccount(ctx, accounts, cs.Metadata["account_id"], cs.Customer)
	if err != nil {
		return s.skipUnknownAccount(stripe.Event{ID: eventID, Type: stripe.EventTypeCheckoutSessionCompleted}, err)
	}
	switch cs.Metadata["kind"] {
	case checkoutKindPremium:
		if err := accounts.SetPremium(ctx, account.ID, true); err != nil {
			return fmt.Errorf("set premium: %w", err)
		}
	case checkoutKindCredits:
		n, err := strconv.Atoi(cs.Metadata["credits"])
		if err != nil || n <= 0 {
			s.logger.Warn("checkout without valid credits amount", zap.String("event_id", eventID))
			return nil
		}
		if _, err := accounts.AddCredits(ctx, domain.CreditLedgerEntry{
			ID:        uuid.NewString(),
			AccountID: account.ID,
			Delta:     n,
			Reason:    domain.CreditReasonPurchase,
			Reference: cs.ID,
			CreatedAt: s.now(),
		}); err != nil {
			return fmt.Errorf("add credits: %w", err)
		}
	default:
		s.logger.Warn("checkout with unknown kind", zap.String("event_id", eventID), zap.String("kind", cs.Metadata["kind"]))
	}
	return nil
}

func (s *BillingService) resolveAccount(ctx context.Context, accounts repository.AccountRepository, accountID, customerID string) (domain.Account, error) {
	if accountID != "" {
		if _, err := uuid.Parse(accountID); err != nil {
			return domain.Account{}, ErrAccountNotFound
		}
		acc, err := accounts.GetByID(ctx, accountID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrAccountNotFound
		}
		return acc, err
	}
	if customerID != "" {
		acc, err := accounts.GetByStripeCustomerID(ctx, customerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrAccountNotFound
		}
		return acc, err
	}
	return domain.Account{}, ErrAccountNotFound
}

// skipUnknownAccount confirma eventos de cuentas que no existen para que Stripe no reintente.
func (s *BillingService) skipUnknownAccount(event stripe.Event, err error) error {
	if errors.Is(err, ErrAccountNotFound) {
		s.logger.Warn("stripe event for unknown account",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
		)
		return nil
	}
	return err
}

func subscriptionStatus(stripeStatus string) string {
	switch stripeStatus {
	case "active", "trialing":
		return domain.SubscriptionActive
	case "past_due", "unpaid", "incomplete":
		return domain.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return domain.SubscriptionCanceled
	}
	return domain.SubscriptionNone
}

// UnlockPremium marca la valuacion como premium. Gratis para cuentas premium,
// si no consume un credito. Solo debita quien efectivamente cambia el flag.
func (s *BillingService) UnlockPremium(ctx context.Context, userID string, v domain.Valuation) (domain.Valuation, error) {
	if v.IsPremium {
		return v, nil
	}
	account, err := s.accounts.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Valuation{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("get account: %w", err)
	}

	var debit *domain.CreditLedgerEntry
	if !account.IsPremium {
		debit = &domain.CreditLedgerEntry{
			ID:        uuid.NewString(),
			AccountID: account.ID,
			Delta:     -1,
			Reason:    domain.CreditReasonPremium,
			Reference: v.ID,
			CreatedAt: s.now(),
		}
	}

	unlocked, err := s.valuations.UnlockPremium(ctx, v.ID, debit)
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return domain.Valuation{}, ErrInsufficientCredits
	}
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("unlock premium: %w", err)
	}
	if !unlocked {
		s.logger.Info("valuation already premium", zap.String("valuation_id", v.ID))
	}
	v.IsPremium = true
	return v, nil
}

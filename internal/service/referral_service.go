package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/email"
	"autovalue/internal/repository"
)

// ReferralService envia invitaciones y acredita al referente cuando el invitado se registra.
type ReferralService struct {
	logger    *zap.Logger
	referrals repository.ReferralRepository
	accounts  repository.AccountRepository
	sender    email.Sender
	baseURL   string
	now       func() time.Time
}

func NewReferralService(logger *zap.Logger, referrals repository.ReferralRepository, accounts repository.AccountRepository, sender email.Sender, baseURL string) *ReferralService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{
		logger:    logger,
		referrals: referrals,
		accounts:  accounts,
		sender:    sender,
		baseURL:   strings.TrimRight(baseURL, "/"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Invite registra la invitacion pendiente y envia el correo. Un fallo de envio
// se devuelve pero la invitacion queda registrada.
func (s *ReferralService) Invite(ctx context.Context, referrer domain.User, toEmail string) (domain.Referral, error) {
	toEmail = normalizeEmail(toEmail)
	if !isValidEmail(toEmail) {
		return domain.Referral{}, ErrInvalidEmail
	}
	if toEmail == referrer.Email {
		return domain.Referral{}, ErrReferralInvalid
	}
	account, err := s.accounts.GetByUserID(ctx, referrer.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Referral{}, ErrAccountNotFound
	}
	if err != nil {
		return domain.Referral{}, fmt.Errorf("get account: %w", err)
	}

	ref := domain.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    referrer.ID,
		ReferredEmail: toEmail,
		Code:          account.ReferralCode,
		Status:        domain.ReferralPending,
		CreatedAt:     s.now(),
	}
	if err := s.referrals.Create(ctx, ref); err != nil {
		return domain.Referral{}, fmt.Errorf("create referral: %w", err)
	}

	signupURL := ""
	if s.baseURL != "" {
		signupURL = s.baseURL + "/signup?ref=" + url.QueryEscape(account.ReferralCode)
	}
	name := referrer.DisplayName
	if name == "" {
		name = referrer.Email
	}
	msg, err := email.RenderInviteEmail(toEmail, email.InviteEmailData{
		ReferrerName: name,
		Code:         account.ReferralCode,
		SignupURL:    signupURL,
	})
	if err != nil {
		return ref, err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("referral invite not sent", zap.String("referral_id", ref.ID), zap.Error(err))
		return ref, fmt.Errorf("send invite: %w", err)
	}
	return ref, nil
}

func (s *ReferralService) List(ctx context.Context, referrerID string) ([]domain.Referral, error) {
	refs, err := s.referrals.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	if refs == nil {
		refs = []domain.Referral{}
	}
	return refs, nil
}

// Redeem se llama al registrarse con codigo: marca la invitacion y suma un credito al referente.
func (s *ReferralService) Redeem(ctx context.Context, code string, newUser domain.User) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ErrReferralInvalid
	}
	referrerAccount, err := s.accounts.GetByReferralCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrReferralInvalid
	}
	if err != nil {
		return fmt.Errorf("get referrer: %w", err)
	}
	if referrerAccount.UserID == newUser.ID {
		return ErrReferralInvalid
	}

	now := s.now()
	redeemed, err := s.referrals.Redeem(ctx, domain.Referral{
		ID:            uuid.NewString(),
		ReferrerID:    referrerAccount.UserID,
		ReferredEmail: newUser.Email,
		Code:          code,
	}, newUser.ID, now)
	if err != nil {
		return fmt.Errorf("redeem referral: %w", err)
	}
	if !redeemed {
		return ErrReferralInvalid
	}

	if _, err := s.accounts.AddCredits(ctx, domain.CreditLedgerEntry{
		ID:        uuid.NewString(),
		AccountID: referrerAccount.ID,
		Delta:     1,
		Reason:    domain.CreditReasonReferral,
		Reference: newUser.ID,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("credit referrer: %w", err)
	}
	s.logger.Info("referral redeemed",
		zap.String("referrer_id", referrerAccount.UserID),
		zap.String("user_id", newUser.ID),
	)
	return nil
}

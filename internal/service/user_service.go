package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
)

// referralRedeemer acredita al referente cuando un invitado se registra.
type referralRedeemer interface {
	Redeem(ctx context.Context, code string, newUser domain.User) error
}

// UserService coordina registro, login y cuenta de los usuarios.
type UserService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	accounts  repository.AccountRepository
	referrals referralRedeemer
	now       func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, accounts repository.AccountRepository, referrals referralRedeemer) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		logger:    logger,
		users:     users,
		accounts:  accounts,
		referrals: referrals,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email        string
	Password     string
	DisplayName  string
	Role         string
	ReferralCode string
}

// Register crea el usuario y su cuenta. Un codigo de referido invalido no
// impide el registro: se registra en el log y se continua.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil || s.accounts == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if !isValidEmail(emailAddr) {
		return domain.User{}, ErrInvalidEmail
	}
	if len(strings.TrimSpace(input.Password)) < 8 {
		return domain.User{}, ErrWeakPassword
	}
	role := strings.ToLower(strings.TrimSpace(input.Role))
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleDealer:
	default:
		return domain.User{}, ErrForbidden
	}

	if _, err := s.users.GetByEmail(ctx, emailAddr); err == nil {
		return domain.User{}, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(input.Password)), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	code, err := newReferralCode()
	if err != nil {
		return domain.User{}, err
	}
	account := domain.Account{
		ID:                 uuid.NewString(),
		UserID:             user.ID,
		SubscriptionStatus: domain.SubscriptionNone,
		ReferralCode:       code,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return domain.User{}, fmt.Errorf("create account: %w", err)
	}

	if refCode := strings.TrimSpace(input.ReferralCode); refCode != "" && s.referrals != nil {
		if err := s.referrals.Redeem(ctx, refCode, user); err != nil {
			s.logger.Warn("referral not redeemed",
				zap.String("user_id", user.ID),
				zap.String("code", refCode),
				zap.Error(err),
			)
		}
	}

	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetAccount(ctx context.Context, userID string) (domain.Account, error) {
	acc, err := s.accounts.GetByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrAccountNotFound
	}
	return acc, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("referral code: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}
	return string(buf), nil
}

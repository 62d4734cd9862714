package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"autovalue/internal/domain"
)

// ErrInsufficientBalance indica que un debito dejaria el saldo negativo.
var ErrInsufficientBalance = errors.New("insufficient credit balance")

// AccountRepository persiste estado premium, creditos y suscripciones.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByUserID(ctx context.Context, userID string) (domain.Account, error)
	GetByReferralCode(ctx context.Context, code string) (domain.Account, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (domain.Account, error)
	SetPremium(ctx context.Context, accountID string, premium bool) error
	SetSubscriptionStatus(ctx context.Context, accountID, status, customerID string) error
	AddCredits(ctx context.Context, entry domain.CreditLedgerEntry) (int, error)
	// ApplyEventOnce reclama el evento y ejecuta fn en la misma transaccion.
	// Devuelve false sin ejecutar fn si el evento ya estaba reclamado.
	ApplyEventOnce(ctx context.Context, eventID, eventType string, fn func(ctx context.Context, accounts AccountRepository) error) (bool, error)
}

// dbtx lo cumplen tanto *pgxpool.Pool como pgx.Tx; Begin sobre un pgx.Tx abre un savepoint.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type PgAccountRepository struct {
	db dbtx
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{db: pool}
}

const accountColumns = `id, user_id, is_premium, credit_balance, subscription_status, stripe_customer_id, referral_code, created_at, updated_at`

func (r *PgAccountRepository) Create(ctx context.Context, account domain.Account) error {
	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.UserID,
		account.IsPremium,
		account.CreditBalance,
		account.SubscriptionStatus,
		account.StripeCustomerID,
		account.ReferralCode,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PgAccountRepository) GetByUserID(ctx context.Context, userID string) (domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
}

func (r *PgAccountRepository) GetByReferralCode(ctx context.Context, code string) (domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code)
}

func (r *PgAccountRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (domain.Account, error) {
	return r.scanOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE stripe_customer_id = $1`, customerID)
}

func (r *PgAccountRepository) scanOne(ctx context.Context, query string, arg any) (domain.Account, error) {
	var a domain.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&a.ID,
		&a.UserID,
		&a.IsPremium,
		&a.CreditBalance,
		&a.SubscriptionStatus,
		&a.StripeCustomerID,
		&a.ReferralCode,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, err
	}
	return a, err
}

func (r *PgAccountRepository) SetPremium(ctx context.Context, accountID string, premium bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE accounts SET is_premium = $2, updated_at = $3 WHERE id = $1`,
		accountID, premium, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgAccountRepository) SetSubscriptionStatus(ctx context.Context, accountID, status, customerID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET subscription_status = $2,
			stripe_customer_id = COALESCE(NULLIF($3, ''), stripe_customer_id),
			updated_at = $4
		WHERE id = $1
	`, accountID, status, customerID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddCredits registra el movimiento en el ledger y ajusta el saldo en una transaccion.
// Devuelve el saldo resultante.
func (r *PgAccountRepository) AddCredits(ctx context.Context, entry domain.CreditLedgerEntry) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var balance int
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET credit_balance = credit_balance + $2, updated_at = $3
		WHERE id = $1 AND credit_balance + $2 >= 0
		RETURNING credit_balance
	`, entry.AccountID, entry.Delta, entry.CreatedAt).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if qerr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, entry.AccountID).Scan(&exists); qerr != nil {
			return 0, qerr
		}
		if !exists {
			return 0, pgx.ErrNoRows
		}
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO credit_ledger (id, account_id, delta, reason, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.AccountID, entry.Delta, entry.Reason, entry.Reference, entry.CreatedAt)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *PgAccountRepository) ApplyEventOnce(ctx context.Context, eventID, eventType string, fn func(ctx context.Context, accounts AccountRepository) error) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO processed_webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType, time.Now().UTC())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if err := fn(ctx, &PgAccountRepository{db: tx}); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

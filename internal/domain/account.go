package domain

import "time"

const (
	SubscriptionNone     = "none"
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Account concentra el estado de facturacion de un usuario.
type Account struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	IsPremium          bool      `json:"is_premium"`
	CreditBalance      int       `json:"credit_balance"`
	SubscriptionStatus string    `json:"subscription_status"`
	StripeCustomerID   string    `json:"-"`
	ReferralCode       string    `json:"referral_code"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasActiveSubscription indica si la suscripcion de concesionario esta vigente.
func (a Account) HasActiveSubscription() bool {
	return a.SubscriptionStatus == SubscriptionActive
}

const (
	CreditReasonPurchase = "purchase"
	CreditReasonReferral = "referral"
	CreditReasonPremium  = "premium_unlock"
)

type CreditLedgerEntry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

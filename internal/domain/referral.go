package domain

import "time"

const (
	ReferralPending  = "pending"
	ReferralRedeemed = "redeemed"
)

type Referral struct {
	ID            string     `json:"id"`
	ReferrerID    string     `json:"referrer_id"`
	ReferredEmail string     `json:"referred_email"`
	Code          string     `json:"code"`
	Status        string     `json:"status"`
	RedeemedBy    *string    `json:"redeemed_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
}

package domain

import "time"

const (
	InventoryAvailable = "available"
	InventoryPending   = "pending"
	InventorySold      = "sold"
)

type InventoryItem struct {
	ID        string    `json:"id"`
	DealerID  string    `json:"dealer_id"`
	VIN       string    `json:"vin"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Mileage   int       `json:"mileage"`
	Trim      string    `json:"trim,omitempty"`
	ListPrice int       `json:"list_price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
	OfferExpired  = "expired"
)

type Offer struct {
	ID          string    `json:"id"`
	DealerID    string    `json:"dealer_id"`
	ValuationID string    `json:"valuation_id"`
	Amount      int       `json:"amount"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EffectiveStatus deriva "expired" para ofertas pendientes vencidas.
func (o Offer) EffectiveStatus(now time.Time) string {
	if o.Status == OfferPending && now.After(o.ExpiresAt) {
		return OfferExpired
	}
	return o.Status
}

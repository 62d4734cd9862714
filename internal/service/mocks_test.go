package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"autovalue/internal/domain"
	"autovalue/internal/email"
	"autovalue/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	ledger   []domain.CreditLedgerEntry
	events   map[string]string

	failNextCredit error
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		accounts: make(map[string]domain.Account),
		events:   make(map[string]string),
	}
}

func (m *mockAccountRepo) Create(_ context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountRepo) find(match func(domain.Account) bool) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			return a, nil
		}
	}
	return domain.Account{}, pgx.ErrNoRows
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.ID == id })
}

func (m *mockAccountRepo) GetByUserID(_ context.Context, userID string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.UserID == userID })
}

func (m *mockAccountRepo) GetByReferralCode(_ context.Context, code string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.ReferralCode == code })
}

func (m *mockAccountRepo) GetByStripeCustomerID(_ context.Context, customerID string) (domain.Account, error) {
	return m.find(func(a domain.Account) bool { return customerID != "" && a.StripeCustomerID == customerID })
}

func (m *mockAccountRepo) SetPremium(_ context.Context, id string, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.IsPremium = premium
	m.accounts[id] = a
	return nil
}

func (m *mockAccountRepo) SetSubscriptionStatus(_ context.Context, id, status, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	a.SubscriptionStatus = status
	if customerID != "" {
		a.StripeCustomerID = customerID
	}
	m.accounts[id] = a
	return nil
}

func (m *mockAccountRepo) AddCredits(_ context.Context, e domain.CreditLedgerEntry) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNextCredit; err != nil {
		m.failNextCredit = nil
		return 0, err
	}
	a, ok := m.accounts[e.AccountID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if a.CreditBalance+e.Delta < 0 {
		return a.CreditBalance, repository.ErrInsufficientBalance
	}
	a.CreditBalance += e.Delta
	m.accounts[e.AccountID] = a
	m.ledger = append(m.ledger, e)
	return a.CreditBalance, nil
}

// ApplyEventOnce reclama el id bajo lock; un fallo de fn libera el reclamo como un rollback.
func (m *mockAccountRepo) ApplyEventOnce(ctx context.Context, id, typ string, fn func(context.Context, repository.AccountRepository) error) (bool, error) {
	m.mu.Lock()
	if _, ok := m.events[id]; ok {
		m.mu.Unlock()
		return false, nil
	}
	m.events[id] = typ
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		delete(m.events, id)
		m.mu.Unlock()
		return false, err
	}
	return true, nil
}

type mockValuationRepo struct {
	mu       sync.Mutex
	items    map[string]domain.Valuation
	created  []domain.Valuation
	accounts *mockAccountRepo
}

func newMockValuationRepo() *mockValuationRepo {
	return &mockValuationRepo{items: make(map[string]domain.Valuation)}
}

func (m *mockValuationRepo) Create(_ context.Context, v domain.Valuation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[v.ID] = v
	m.created = append(m.created, v)
	return nil
}

func (m *mockValuationRepo) GetByID(_ context.Context, id string) (domain.Valuation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return domain.Valuation{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockValuationRepo) list(match func(domain.Valuation) bool, limit int) []domain.Valuation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Valuation
	for _, v := range m.items {
		if match(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockValuationRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Valuation, error) {
	return m.list(func(v domain.Valuation) bool { return v.UserID == userID }, limit), nil
}

func (m *mockValuationRepo) ListByVIN(_ context.Context, vin string, limit int) ([]domain.Valuation, error) {
	return m.list(func(v domain.Valuation) bool { return v.Vehicle.VIN == vin }, limit), nil
}

func (m *mockValuationRepo) UnlockPremium(ctx context.Context, id string, debit *domain.CreditLedgerEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if v.IsPremium {
		return false, nil
	}
	if debit != nil {
		if m.accounts == nil {
			return false, errors.New("no account store")
		}
		if _, err := m.accounts.AddCredits(ctx, *debit); err != nil {
			return false, err
		}
	}
	v.IsPremium = true
	m.items[id] = v
	return true, nil
}

type mockFollowUpRepo struct {
	items map[string]domain.FollowUp
}

func newMockFollowUpRepo() *mockFollowUpRepo {
	return &mockFollowUpRepo{items: make(map[string]domain.FollowUp)}
}

func (m *mockFollowUpRepo) Get(_ context.Context, valuationID string) (domain.FollowUp, error) {
	f, ok := m.items[valuationID]
	if !ok {
		return domain.FollowUp{}, pgx.ErrNoRows
	}
	return f, nil
}

func (m *mockFollowUpRepo) Upsert(_ context.Context, f domain.FollowUp) error {
	m.items[f.ValuationID] = f
	return nil
}

type mockReferenceRepo struct {
	makes      []domain.VehicleMake
	models     map[int][]domain.VehicleModel
	zips       map[string]domain.ZipCode
	makesCalls int
	err        error
}

func (m *mockReferenceRepo) ListMakes(_ context.Context) ([]domain.VehicleMake, error) {
	m.makesCalls++
	return m.makes, m.err
}

func (m *mockReferenceRepo) ListModels(_ context.Context, makeID int) ([]domain.VehicleModel, error) {
	return m.models[makeID], m.err
}

func (m *mockReferenceRepo) GetModel(_ context.Context, modelID int) (domain.VehicleModel, error) {
	for _, ms := range m.models {
		for _, md := range ms {
			if md.ID == modelID {
				return md, nil
			}
		}
	}
	return domain.VehicleModel{}, pgx.ErrNoRows
}

func (m *mockReferenceRepo) GetZip(_ context.Context, code string) (domain.ZipCode, error) {
	z, ok := m.zips[code]
	if !ok {
		return domain.ZipCode{}, pgx.ErrNoRows
	}
	return z, nil
}

type mockVINCache struct {
	items   map[string]domain.DecodedVehicle
	upserts int
}

func newMockVINCache() *mockVINCache {
	return &mockVINCache{items: make(map[string]domain.DecodedVehicle)}
}

func (m *mockVINCache) Get(_ context.Context, vin string) (domain.DecodedVehicle, error) {
	d, ok := m.items[vin]
	if !ok {
		return domain.DecodedVehicle{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockVINCache) Upsert(_ context.Context, d domain.DecodedVehicle) error {
	m.upserts++
	m.items[d.Vehicle.VIN] = d
	return nil
}

type mockSessionRepo struct {
	items map[string]domain.ChatSession
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{items: make(map[string]domain.ChatSession)}
}

func (m *mockSessionRepo) Create(_ context.Context, s domain.ChatSession) error {
	m.items[s.ID] = s
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.ChatSession, error) {
	s, ok := m.items[id]
	if !ok {
		return domain.ChatSession{}, pgx.ErrNoRows
	}
	return s, nil
}

type mockMessageRepo struct {
	msgs []domain.ChatMessage
	err  error
}

func (m *mockMessageRepo) Create(_ context.Context, msg domain.ChatMessage) error {
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockMessageRepo) ListBySessionID(_ context.Context, sessionID string) ([]domain.ChatMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ChatMessage
	for _, msg := range m.msgs {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

type mockInventoryRepo struct {
	items map[string]domain.InventoryItem
}

func newMockInventoryRepo() *mockInventoryRepo {
	return &mockInventoryRepo{items: make(map[string]domain.InventoryItem)}
}

func (m *mockInventoryRepo) Create(_ context.Context, it domain.InventoryItem) error {
	m.items[it.ID] = it
	return nil
}

func (m *mockInventoryRepo) GetByID(_ context.Context, id string) (domain.InventoryItem, error) {
	it, ok := m.items[id]
	if !ok {
		return domain.InventoryItem{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockInventoryRepo) ListByDealer(_ context.Context, dealerID string) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	for _, it := range m.items {
		if it.DealerID == dealerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockInventoryRepo) Update(_ context.Context, it domain.InventoryItem) error {
	if _, ok := m.items[it.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.items[it.ID] = it
	return nil
}

func (m *mockInventoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

type mockOfferRepo struct {
	items map[string]domain.Offer
}

func newMockOfferRepo() *mockOfferRepo {
	return &mockOfferRepo{items: make(map[string]domain.Offer)}
}

func (m *mockOfferRepo) Create(_ context.Context, o domain.Offer) error {
	m.items[o.ID] = o
	return nil
}

func (m *mockOfferRepo) GetByID(_ context.Context, id string) (domain.Offer, error) {
	o, ok := m.items[id]
	if !ok {
		return domain.Offer{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockOfferRepo) ListByValuation(_ context.Context, valuationID string) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, o := range m.items {
		if o.ValuationID == valuationID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOfferRepo) Accept(_ context.Context, id string, at time.Time) error {
	o, ok := m.items[id]
	if !ok || o.Status != domain.OfferPending {
		return pgx.ErrNoRows
	}
	for k, other := range m.items {
		if other.ValuationID == o.ValuationID && other.Status == domain.OfferPending {
			other.Status = domain.OfferRejected
			other.UpdatedAt = at
			m.items[k] = other
		}
	}
	o.Status = domain.OfferAccepted
	o.UpdatedAt = at
	m.items[id] = o
	return nil
}

func (m *mockOfferRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	o, ok := m.items[id]
	if !ok || o.Status != domain.OfferPending {
		return pgx.ErrNoRows
	}
	o.Status = status
	o.UpdatedAt = at
	m.items[id] = o
	return nil
}

type mockMarketRepo struct {
	listings     []domain.MarketListing
	lastFeatures pgvector.Vector
	lastMake     string
	created      int
}

func (m *mockMarketRepo) Create(_ context.Context, l domain.MarketListing, features pgvector.Vector) error {
	m.created++
	m.lastFeatures = features
	m.listings = append(m.listings, l)
	return nil
}

func (m *mockMarketRepo) FindComparables(_ context.Context, make, model string, features pgvector.Vector, k int) ([]domain.MarketListing, error) {
	m.lastFeatures = features
	m.lastMake = make
	var out []domain.MarketListing
	for _, l := range m.listings {
		if strings.EqualFold(l.Make, make) && strings.EqualFold(l.Model, model) {
			out = append(out, l)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type mockReferralRepo struct {
	items []domain.Referral
}

func (m *mockReferralRepo) Create(_ context.Context, r domain.Referral) error {
	for _, existing := range m.items {
		if existing.ReferrerID == r.ReferrerID && existing.ReferredEmail == r.ReferredEmail {
			return nil
		}
	}
	m.items = append(m.items, r)
	return nil
}

func (m *mockReferralRepo) ListByReferrer(_ context.Context, referrerID string) ([]domain.Referral, error) {
	var out []domain.Referral
	for _, r := range m.items {
		if r.ReferrerID == referrerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReferralRepo) Redeem(_ context.Context, r domain.Referral, redeemedBy string, at time.Time) (bool, error) {
	for i, existing := range m.items {
		if existing.ReferrerID == r.ReferrerID && existing.ReferredEmail == r.ReferredEmail {
			if existing.Status != domain.ReferralPending {
				return false, nil
			}
			m.items[i].Status = domain.ReferralRedeemed
			m.items[i].RedeemedBy = &redeemedBy
			m.items[i].RedeemedAt = &at
			return true, nil
		}
	}
	r.Status = domain.ReferralRedeemed
	r.RedeemedBy = &redeemedBy
	r.RedeemedAt = &at
	m.items = append(m.items, r)
	return true, nil
}

type mockEmailSender struct {
	sent []email.Message
	err  error
}

func (m *mockEmailSender) Send(_ context.Context, msg email.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

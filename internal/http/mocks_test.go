package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/repository"
	"autovalue/internal/service"
)

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
	accounts map[string]domain.Account
	events   map[string]bool
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{accounts: make(map[string]domain.Account), events: make(map[string]bool)}
}

func (m *mockAccountRepo) Create(_ context.Context, a domain.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountRepo) find(match func(domain.Account) bool) (domain.Account, error) {
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
	return m.find(func(a domain.Account) bool { return a.StripeCustomerID == customerID })
}

func (m *mockAccountRepo) SetPremium(_ context.Context, id string, premium bool) error {
	a := m.accounts[id]
	a.IsPremium = premium
	m.accounts[id] = a
	return nil
}

func (m *mockAccountRepo) SetSubscriptionStatus(_ context.Context, id, status, _ string) error {
	a := m.accounts[id]
	a.SubscriptionStatus = status
	m.accounts[id] = a
	return nil
}

func (m *mockAccountRepo) AddCredits(_ context.Context, e domain.CreditLedgerEntry) (int, error) {
	a, ok := m.accounts[e.AccountID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	if a.CreditBalance+e.Delta < 0 {
		return a.CreditBalance, repository.ErrInsufficientBalance
	}
	a.CreditBalance += e.Delta
	m.accounts[e.AccountID] = a
	return a.CreditBalance, nil
}

func (m *mockAccountRepo) ApplyEventOnce(ctx context.Context, id, _ string, fn func(context.Context, repository.AccountRepository) error) (bool, error) {
	if m.events[id] {
		return false, nil
	}
	if err := fn(ctx, m); err != nil {
		return false, err
	}
	m.events[id] = true
	return true, nil
}

type mockValuationRepo struct {
	items    map[string]domain.Valuation
	accounts *mockAccountRepo
}

func (m *mockValuationRepo) Create(_ context.Context, v domain.Valuation) error {
	m.items[v.ID] = v
	return nil
}

func (m *mockValuationRepo) GetByID(_ context.Context, id string) (domain.Valuation, error) {
	v, ok := m.items[id]
	if !ok {
		return domain.Valuation{}, pgx.ErrNoRows
	}
	return v, nil
}

func (m *mockValuationRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Valuation, error) {
	var out []domain.Valuation
	for _, v := range m.items {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockValuationRepo) ListByVIN(_ context.Context, vin string, _ int) ([]domain.Valuation, error) {
	var out []domain.Valuation
	for _, v := range m.items {
		if v.Vehicle.VIN == vin {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockValuationRepo) UnlockPremium(ctx context.Context, id string, debit *domain.CreditLedgerEntry) (bool, error) {
	v, ok := m.items[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if v.IsPremium {
		return false, nil
	}
	if debit != nil {
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

func (m *mockFollowUpRepo) Get(_ context.Context, id string) (domain.FollowUp, error) {
	f, ok := m.items[id]
	if !ok {
		return domain.FollowUp{}, pgx.ErrNoRows
	}
	return f, nil
}

func (m *mockFollowUpRepo) Upsert(_ context.Context, f domain.FollowUp) error {
	m.items[f.ValuationID] = f
	return nil
}

type mockLimiter struct {
	allow bool
}

func (m *mockLimiter) Allow(_ string) bool {
	return m.allow
}

const testWebhookSecret = "whsec_handler_test"

type testServer struct {
	router     *gin.Engine
	jwt        *service.JWTService
	users      *mockUserRepo
	accounts   *mockAccountRepo
	valuations *mockValuationRepo
	limiter    *mockLimiter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	ts := &testServer{
		jwt:      service.NewJWTServiceWithStore("secret", 15*time.Minute, time.Hour, service.NewMemoryRefreshTokenStore()),
		users:    newMockUserRepo(),
		accounts: newMockAccountRepo(),
		limiter:  &mockLimiter{allow: true},
	}
	ts.valuations = &mockValuationRepo{items: make(map[string]domain.Valuation), accounts: ts.accounts}

	valSvc := service.NewValuationService(logger, ts.valuations, service.ValuationScorer{})
	userSvc := service.NewUserService(logger, ts.users, ts.accounts, nil)
	followSvc := service.NewFollowUpService(logger, &mockFollowUpRepo{items: make(map[string]domain.FollowUp)}, valSvc)
	billingSvc := service.NewBillingService(logger, ts.accounts, ts.valuations, testWebhookSecret)
	dealerSvc := service.NewDealerService(logger, nil, nil, ts.accounts, valSvc)
	explainSvc := service.NewExplanationService(logger, nil)
	marketSvc := service.NewMarketService(logger, nil)
	decoder := service.NewDecoderService(logger, nil, nil, 0)

	ts.router = NewRouter(logger, ts.jwt, Handlers{
		User:      NewUserHandler(logger, userSvc, ts.jwt),
		Reference: NewReferenceHandler(logger, nil),
		VIN:       NewVINHandler(logger, decoder, ts.limiter),
		Valuation: NewValuationHandler(logger, valSvc, followSvc, billingSvc, dealerSvc),
		Report:    NewReportHandler(logger, service.NewReportService(logger, valSvc, explainSvc, marketSvc, nil, "")),
		Chat:      NewChatHandler(logger, nil),
		Dealer:    NewDealerHandler(logger, dealerSvc),
		Billing:   NewBillingHandler(logger, billingSvc),
		Referral:  NewReferralHandler(logger, nil),
		Market:    NewMarketHandler(logger, marketSvc),
	})
	return ts
}

// tokenFor registra un usuario con cuenta y devuelve su access token.
func (ts *testServer) tokenFor(t *testing.T, id, role string) string {
	t.Helper()
	user := domain.User{ID: id, Email: id + "@example.com", Role: role}
	ts.users.usersByID[id] = user
	ts.users.usersByEmail[user.Email] = id
	ts.accounts.accounts["acc-"+id] = domain.Account{ID: "acc-" + id, UserID: id, SubscriptionStatus: domain.SubscriptionNone}
	pair, err := ts.jwt.GeneratePair(user)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	return pair.AccessToken
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

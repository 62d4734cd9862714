package http

import (
	"bytes"
	"net/http"
	"testing"

	"autovalue/internal/domain"
)

type valuationEnvelope struct {
	Valuation struct {
		ID                  string  `json:"id"`
		UserID              string  `json:"user_id"`
		IsPremium           bool    `json:"is_premium"`
		PreviousValuationID *string `json:"previous_valuation_id"`
		Result              struct {
			Estimate   int `json:"estimate"`
			Confidence int `json:"confidence"`
		} `json:"result"`
	} `json:"valuation"`
}

func createValuation(t *testing.T, ts *testServer, token string) valuationEnvelope {
	t.Helper()
	rec := ts.do(http.MethodPost, "/valuations", token, map[string]any{
		"make":    "Honda",
		"model":   "Civic",
		"year":    2018,
		"mileage": 50000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var out valuationEnvelope
	decodeBody(t, rec, &out)
	return out
}

func TestValuationCreateAndGet(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)

	created := createValuation(t, ts, token)
	if created.Valuation.UserID != "owner" || created.Valuation.Result.Estimate <= 0 {
		t.Fatalf("unexpected valuation: %+v", created.Valuation)
	}

	rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d body=%s", rec.Code, rec.Body.String())
	}

	other := ts.tokenFor(t, "intruder", domain.RoleUser)
	if rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID, other, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign get status = %d, want 403", rec.Code)
	}

	admin := ts.tokenFor(t, "root", domain.RoleAdmin)
	if rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID, admin, nil); rec.Code != http.StatusOK {
		t.Fatalf("admin get status = %d, want 200", rec.Code)
	}

	if rec := ts.do(http.MethodGet, "/valuations/not-a-uuid", token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing get status = %d, want 404", rec.Code)
	}
}

func TestValuationCreateValidation(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)

	rec := ts.do(http.MethodPost, "/valuations", token, map[string]any{"make": "Honda"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d, want 400", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/valuations", token, map[string]any{
		"make": "Honda", "model": "Civic", "year": 1800, "mileage": -5,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid fields status = %d, want 422 body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, rec, &body)
	if body.Error != "validation failed" || body.Fields["year"] == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestValuationListOnlyOwn(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.tokenFor(t, "owner", domain.RoleUser)
	other := ts.tokenFor(t, "other", domain.RoleUser)
	createValuation(t, ts, owner)
	createValuation(t, ts, other)

	rec := ts.do(http.MethodGet, "/valuations", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var out struct {
		Valuations []struct {
			UserID string `json:"user_id"`
		} `json:"valuations"`
	}
	decodeBody(t, rec, &out)
	if len(out.Valuations) != 1 || out.Valuations[0].UserID != "owner" {
		t.Fatalf("unexpected list: %+v", out.Valuations)
	}
}

func TestFollowUpFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)
	created := createValuation(t, ts, token)
	base := "/valuations/" + created.Valuation.ID + "/follow-up"

	if rec := ts.do(http.MethodPost, base+"/submit", token, nil); rec.Code != http.StatusConflict {
		t.Fatalf("empty submit status = %d, want 409 body=%s", rec.Code, rec.Body.String())
	}

	rec := ts.do(http.MethodPut, base, token, map[string]any{"condition": "pristine"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid condition status = %d, want 422", rec.Code)
	}

	rec = ts.do(http.MethodPut, base, token, map[string]any{
		"condition":      "excellent",
		"mileage":        42000,
		"accident_count": 0,
		"title_status":   "clean",
		"maintenance":    "complete",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = ts.do(http.MethodPost, base+"/submit", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body=%s", rec.Code, rec.Body.String())
	}
	var next valuationEnvelope
	decodeBody(t, rec, &next)
	if next.Valuation.PreviousValuationID == nil || *next.Valuation.PreviousValuationID != created.Valuation.ID {
		t.Fatalf("expected link to %s, got %+v", created.Valuation.ID, next.Valuation.PreviousValuationID)
	}
	if next.Valuation.Result.Confidence <= created.Valuation.Result.Confidence {
		t.Fatalf("expected confidence to grow: %d -> %d", created.Valuation.Result.Confidence, next.Valuation.Result.Confidence)
	}
}

func TestUnlockPremiumRequiresCredits(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)
	created := createValuation(t, ts, token)
	path := "/valuations/" + created.Valuation.ID + "/premium"

	if rec := ts.do(http.MethodPost, path, token, nil); rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402 body=%s", rec.Code, rec.Body.String())
	}

	acc := ts.accounts.accounts["acc-owner"]
	acc.CreditBalance = 1
	ts.accounts.accounts["acc-owner"] = acc

	rec := ts.do(http.MethodPost, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 body=%s", rec.Code, rec.Body.String())
	}
	var out valuationEnvelope
	decodeBody(t, rec, &out)
	if !out.Valuation.IsPremium {
		t.Fatalf("expected premium valuation")
	}
	if got := ts.accounts.accounts["acc-owner"].CreditBalance; got != 0 {
		t.Fatalf("credit balance = %d, want 0", got)
	}
}

func TestMarketRequiresPremium(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)
	created := createValuation(t, ts, token)

	rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID+"/market", token, nil)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402 body=%s", rec.Code, rec.Body.String())
	}
}

func TestExplanationTemplateFallback(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)
	created := createValuation(t, ts, token)

	rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID+"/explanation", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDealerRoutesRequireRole(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)

	if rec := ts.do(http.MethodGet, "/dealer/inventory", token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestReportPDF(t *testing.T) {
	ts := newTestServer(t)
	token := ts.tokenFor(t, "owner", domain.RoleUser)
	created := createValuation(t, ts, token)

	rec := ts.do(http.MethodGet, "/valuations/"+created.Valuation.ID+"/report.pdf", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a pdf")
	}
}

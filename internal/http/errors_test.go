package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/email"
	"autovalue/internal/service"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad vin", service.ErrInvalidVIN, http.StatusBadRequest},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrValuationNotFound), http.StatusNotFound},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"credits", service.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"subscription", service.ErrSubscriptionInactive, http.StatusForbidden},
		{"offer state", service.ErrOfferNotPending, http.StatusConflict},
		{"rate limit", service.ErrRateLimited, http.StatusTooManyRequests},
		{"email disabled", email.ErrSenderDisabled, http.StatusServiceUnavailable},
		{"validation", service.ValidationErrors{"year": "required"}, http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err, "fallback")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRespondErrorHidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, zap.NewNop(), errors.New("pq: connection refused"), "could not load")
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	if body.Error != "could not load" {
		t.Fatalf("error = %q, want fallback message", body.Error)
	}
}

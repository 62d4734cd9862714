package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// maxWebhookBody limita el cuerpo leido de los webhooks de pagos.
const maxWebhookBody = 64 << 10

// BillingHandler recibe los webhooks de Stripe.
type BillingHandler struct {
	logger      *zap.Logger
	billingServ *service.BillingService
}

func NewBillingHandler(logger *zap.Logger, billingServ *service.BillingService) *BillingHandler {
	return &BillingHandler{logger: logger, billingServ: billingServ}
}

// StripeWebhook maneja POST /webhooks/stripe con el cuerpo sin parsear.
func (h *BillingHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, h.logger, "read webhook body failed", err)
		return
	}
	if err := h.billingServ.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, h.logger, err, "could not process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

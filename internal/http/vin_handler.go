package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// VINHandler decodifica VINs con limite por usuario.
type VINHandler struct {
	logger     *zap.Logger
	decoder    *service.DecoderService
	rateLimits service.RateLimiter
}

func NewVINHandler(logger *zap.Logger, decoder *service.DecoderService, limiter service.RateLimiter) *VINHandler {
	return &VINHandler{logger: logger, decoder: decoder, rateLimits: limiter}
}

// Decode maneja POST /vin/decode.
func (h *VINHandler) Decode(c *gin.Context) {
	var req struct {
		VIN string `json:"vin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid decode request", err)
		return
	}

	key := c.ClientIP()
	if claims, ok := GetAuthClaims(c); ok && claims.UserID != "" {
		key = claims.UserID
	}
	if h.rateLimits != nil && !h.rateLimits.Allow(key) {
		respondError(c, h.logger, service.ErrRateLimited, "rate limited")
		return
	}

	decoded, err := h.decoder.Decode(c.Request.Context(), req.VIN)
	if err != nil {
		respondError(c, h.logger, err, "could not decode vin")
		return
	}
	c.JSON(http.StatusOK, gin.H{"decoded": decoded})
}

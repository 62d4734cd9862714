package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/email"
	"autovalue/internal/service"
)

// errorStatus asocia los errores de servicio con su codigo HTTP.
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidVIN, http.StatusBadRequest},
	{service.ErrInvalidZip, http.StatusBadRequest},
	{service.ErrInvalidEmail, http.StatusBadRequest},
	{service.ErrWeakPassword, http.StatusBadRequest},
	{service.ErrEmptyMessage, http.StatusBadRequest},
	{service.ErrReferralInvalid, http.StatusBadRequest},
	{service.ErrInvalidSignature, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInsufficientCredits, http.StatusPaymentRequired},
	{service.ErrPremiumRequired, http.StatusPaymentRequired},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrSubscriptionInactive, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrAccountNotFound, http.StatusNotFound},
	{service.ErrZipNotFound, http.StatusNotFound},
	{service.ErrModelNotFound, http.StatusNotFound},
	{service.ErrValuationNotFound, http.StatusNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound},
	{service.ErrInventoryNotFound, http.StatusNotFound},
	{service.ErrOfferNotFound, http.StatusNotFound},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrFollowUpIncomplete, http.StatusConflict},
	{service.ErrOfferNotPending, http.StatusConflict},
	{service.ErrRateLimited, http.StatusTooManyRequests},
	{email.ErrSenderDisabled, http.StatusServiceUnavailable},
}

// respondError escribe {"error": ...} con el codigo que corresponde al error.
// Los errores no mapeados se loguean y responden 500 con un mensaje generico.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var verrs service.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verrs})
		return
	}
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.err.Error()})
			return
		}
	}
	logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func badRequest(c *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Warn(msg, zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/service"
)

type ReferralHandler struct {
	logger       *zap.Logger
	referralServ *service.ReferralService
}

func NewReferralHandler(logger *zap.Logger, referralServ *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{logger: logger, referralServ: referralServ}
}

// Invite maneja POST /referrals. Si el correo falla la invitacion queda creada
// y se informa email_sent=false.
func (h *ReferralHandler) Invite(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid referral request", err)
		return
	}
	claims := mustClaims(c)
	referrer := domain.User{ID: claims.UserID, Email: claims.Email, DisplayName: claims.DisplayName, Role: claims.Role}

	ref, err := h.referralServ.Invite(c.Request.Context(), referrer, req.Email)
	if err != nil {
		if ref.ID == "" {
			respondError(c, h.logger, err, "could not create referral")
			return
		}
		h.logger.Warn("referral created without email", zap.String("referral_id", ref.ID), zap.Error(err))
		c.JSON(http.StatusCreated, gin.H{"referral": ref, "email_sent": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"referral": ref, "email_sent": true})
}

// List maneja GET /referrals.
func (h *ReferralHandler) List(c *gin.Context) {
	refs, err := h.referralServ.List(c.Request.Context(), mustClaims(c).UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list referrals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}

package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/domain"
	"autovalue/internal/service"
)

// ValuationHandler cubre valuaciones, cuestionario de seguimiento, desbloqueo premium y ofertas recibidas.
type ValuationHandler struct {
	logger     *zap.Logger
	valuations *service.ValuationService
	followUps  *service.FollowUpService
	billing    *service.BillingService
	dealerServ *service.DealerService
}

func NewValuationHandler(
	logger *zap.Logger,
	valuations *service.ValuationService,
	followUps *service.FollowUpService,
	billing *service.BillingService,
	dealerServ *service.DealerService,
) *ValuationHandler {
	return &ValuationHandler{
		logger:     logger,
		valuations: valuations,
		followUps:  followUps,
		billing:    billing,
		dealerServ: dealerServ,
	}
}

type createValuationRequest struct {
	VIN           string `json:"vin"`
	Make          string `json:"make" binding:"required"`
	Model         string `json:"model" binding:"required"`
	Year          int    `json:"year" binding:"required"`
	Mileage       int    `json:"mileage"`
	Trim          string `json:"trim"`
	BodyType      string `json:"body_type"`
	FuelType      string `json:"fuel_type"`
	Transmission  string `json:"transmission"`
	Condition     string `json:"condition"`
	AccidentCount *int   `json:"accident_count"`
	TitleStatus   string `json:"title_status"`
	Maintenance   string `json:"maintenance"`
	ZipCode       string `json:"zip_code"`
	PhotoCount    int    `json:"photo_count"`
}

// Create maneja POST /valuations.
func (h *ValuationHandler) Create(c *gin.Context) {
	var req createValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid create valuation request", err)
		return
	}
	claims := mustClaims(c)

	v, err := h.valuations.Create(c.Request.Context(), claims.UserID, service.CreateValuationInput{
		Vehicle: domain.VehicleDescriptor{
			VIN:          req.VIN,
			Make:         req.Make,
			Model:        req.Model,
			Year:         req.Year,
			Mileage:      req.Mileage,
			Trim:         req.Trim,
			BodyType:     req.BodyType,
			FuelType:     req.FuelType,
			Transmission: req.Transmission,
		},
		Condition:     req.Condition,
		AccidentCount: req.AccidentCount,
		TitleStatus:   req.TitleStatus,
		Maintenance:   req.Maintenance,
		ZipCode:       req.ZipCode,
		PhotoCount:    req.PhotoCount,
	})
	if err != nil {
		respondError(c, h.logger, err, "could not create valuation")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"valuation": v})
}

// List maneja GET /valuations?vin=&limit=. Con vin, solo un admin ve valuaciones ajenas.
func (h *ValuationHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		items []domain.Valuation
		err   error
	)
	if vin := c.Query("vin"); vin != "" {
		items, err = h.valuations.ListByVIN(c.Request.Context(), vin, limit)
		if err == nil && claims.Role != domain.RoleAdmin {
			owned := items[:0]
			for _, v := range items {
				if v.UserID == claims.UserID {
					owned = append(owned, v)
				}
			}
			items = owned
		}
	} else {
		items, err = h.valuations.ListByUser(c.Request.Context(), claims.UserID, limit)
	}
	if err != nil {
		respondError(c, h.logger, err, "could not list valuations")
		return
	}
	if items == nil {
		items = []domain.Valuation{}
	}
	c.JSON(http.StatusOK, gin.H{"valuations": items})
}

// Get maneja GET /valuations/:id.
func (h *ValuationHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	v, err := h.valuations.GetOwned(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not load valuation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valuation": v})
}

// GetFollowUp maneja GET /valuations/:id/follow-up.
func (h *ValuationHandler) GetFollowUp(c *gin.Context) {
	claims := mustClaims(c)
	view, err := h.followUps.Get(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not load follow-up")
		return
	}
	c.JSON(http.StatusOK, gin.H{"follow_up": view})
}

// SaveFollowUp maneja PUT /valuations/:id/follow-up.
func (h *ValuationHandler) SaveFollowUp(c *gin.Context) {
	var req struct {
		Condition      *string `json:"condition"`
		Mileage        *int    `json:"mileage"`
		AccidentCount  *int    `json:"accident_count"`
		TitleStatus    *string `json:"title_status"`
		Maintenance    *string `json:"maintenance"`
		TireCondition  *string `json:"tire_condition"`
		ServiceRecords *bool   `json:"service_records"`
		ZipCode        *string `json:"zip_code"`
		PhotoCount     *int    `json:"photo_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid follow-up request", err)
		return
	}
	claims := mustClaims(c)

	view, err := h.followUps.SaveAnswers(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), service.FollowUpPatch{
		Condition:      req.Condition,
		Mileage:        req.Mileage,
		AccidentCount:  req.AccidentCount,
		TitleStatus:    req.TitleStatus,
		Maintenance:    req.Maintenance,
		TireCondition:  req.TireCondition,
		ServiceRecords: req.ServiceRecords,
		ZipCode:        req.ZipCode,
		PhotoCount:     req.PhotoCount,
	})
	if err != nil {
		respondError(c, h.logger, err, "could not save follow-up")
		return
	}
	c.JSON(http.StatusOK, gin.H{"follow_up": view})
}

// SubmitFollowUp maneja POST /valuations/:id/follow-up/submit.
func (h *ValuationHandler) SubmitFollowUp(c *gin.Context) {
	claims := mustClaims(c)
	v, err := h.followUps.Submit(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not submit follow-up")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"valuation": v})
}

// UnlockPremium maneja POST /valuations/:id/premium.
func (h *ValuationHandler) UnlockPremium(c *gin.Context) {
	claims := mustClaims(c)
	v, err := h.valuations.GetOwned(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not load valuation")
		return
	}
	v, err = h.billing.UnlockPremium(c.Request.Context(), claims.UserID, v)
	if err != nil {
		respondError(c, h.logger, err, "could not unlock premium")
		return
	}
	c.JSON(http.StatusOK, gin.H{"valuation": v})
}

// ListOffers maneja GET /valuations/:id/offers.
func (h *ValuationHandler) ListOffers(c *gin.Context) {
	claims := mustClaims(c)
	offers, err := h.dealerServ.ListOffers(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not list offers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

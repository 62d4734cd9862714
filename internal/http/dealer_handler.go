package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// DealerHandler cubre inventario y ofertas de concesionarios.
type DealerHandler struct {
	logger     *zap.Logger
	dealerServ *service.DealerService
}

func NewDealerHandler(logger *zap.Logger, dealerServ *service.DealerService) *DealerHandler {
	return &DealerHandler{logger: logger, dealerServ: dealerServ}
}

type inventoryRequest struct {
	VIN       string `json:"vin"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	Mileage   int    `json:"mileage"`
	Trim      string `json:"trim"`
	ListPrice int    `json:"list_price"`
	Status    string `json:"status"`
}

func (r inventoryRequest) toInput() service.InventoryInput {
	return service.InventoryInput{
		VIN:       r.VIN,
		Make:      r.Make,
		Model:     r.Model,
		Year:      r.Year,
		Mileage:   r.Mileage,
		Trim:      r.Trim,
		ListPrice: r.ListPrice,
		Status:    r.Status,
	}
}

// CreateItem maneja POST /dealer/inventory.
func (h *DealerHandler) CreateItem(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid inventory request", err)
		return
	}
	item, err := h.dealerServ.CreateItem(c.Request.Context(), mustClaims(c).UserID, req.toInput())
	if err != nil {
		respondError(c, h.logger, err, "could not create inventory item")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// ListItems maneja GET /dealer/inventory.
func (h *DealerHandler) ListItems(c *gin.Context) {
	items, err := h.dealerServ.ListItems(c.Request.Context(), mustClaims(c).UserID)
	if err != nil {
		respondError(c, h.logger, err, "could not list inventory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetItem maneja GET /dealer/inventory/:id.
func (h *DealerHandler) GetItem(c *gin.Context) {
	item, err := h.dealerServ.GetItem(c.Request.Context(), mustClaims(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not load inventory item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// UpdateItem maneja PUT /dealer/inventory/:id.
func (h *DealerHandler) UpdateItem(c *gin.Context) {
	var req inventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid inventory request", err)
		return
	}
	item, err := h.dealerServ.UpdateItem(c.Request.Context(), mustClaims(c).UserID, c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, h.logger, err, "could not update inventory item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem maneja DELETE /dealer/inventory/:id.
func (h *DealerHandler) DeleteItem(c *gin.Context) {
	if err := h.dealerServ.DeleteItem(c.Request.Context(), mustClaims(c).UserID, c.Param("id")); err != nil {
		respondError(c, h.logger, err, "could not delete inventory item")
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateOffer maneja POST /dealer/offers.
func (h *DealerHandler) CreateOffer(c *gin.Context) {
	var req struct {
		ValuationID    string `json:"valuation_id" binding:"required"`
		Amount         int    `json:"amount" binding:"required"`
		Message        string `json:"message"`
		ExpiresInHours int    `json:"expires_in_hours"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid offer request", err)
		return
	}
	offer, err := h.dealerServ.CreateOffer(c.Request.Context(), mustClaims(c).UserID, service.OfferInput{
		ValuationID:    req.ValuationID,
		Amount:         req.Amount,
		Message:        req.Message,
		ExpiresInHours: req.ExpiresInHours,
	})
	if err != nil {
		respondError(c, h.logger, err, "could not create offer")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// AcceptOffer maneja POST /offers/:id/accept.
func (h *DealerHandler) AcceptOffer(c *gin.Context) {
	h.respond(c, true)
}

// RejectOffer maneja POST /offers/:id/reject.
func (h *DealerHandler) RejectOffer(c *gin.Context) {
	h.respond(c, false)
}

func (h *DealerHandler) respond(c *gin.Context, accept bool) {
	claims := mustClaims(c)
	offer, err := h.dealerServ.RespondOffer(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), accept)
	if err != nil {
		respondError(c, h.logger, err, "could not respond to offer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// MarketHandler carga avisos de mercado (solo admin).
type MarketHandler struct {
	logger     *zap.Logger
	marketServ *service.MarketService
}

func NewMarketHandler(logger *zap.Logger, marketServ *service.MarketService) *MarketHandler {
	return &MarketHandler{logger: logger, marketServ: marketServ}
}

// AddListing maneja POST /admin/market-listings.
func (h *MarketHandler) AddListing(c *gin.Context) {
	var req struct {
		Make        string     `json:"make"`
		Model       string     `json:"model"`
		Year        int        `json:"year"`
		Mileage     int        `json:"mileage"`
		Price       int        `json:"price"`
		ZipCode     string     `json:"zip_code"`
		Source      string     `json:"source"`
		Condition   string     `json:"condition"`
		TitleStatus string     `json:"title_status"`
		ListedAt    *time.Time `json:"listed_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid market listing request", err)
		return
	}
	in := service.MarketListingInput{
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Mileage:     req.Mileage,
		Price:       req.Price,
		ZipCode:     req.ZipCode,
		Source:      req.Source,
		Condition:   req.Condition,
		TitleStatus: req.TitleStatus,
	}
	if req.ListedAt != nil {
		in.ListedAt = req.ListedAt.UTC()
	}
	listing, err := h.marketServ.AddListing(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err, "could not add market listing")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

package http

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// ReportHandler sirve explicacion, comparacion de mercado, PDF y envio por correo.
type ReportHandler struct {
	logger  *zap.Logger
	reports *service.ReportService
}

func NewReportHandler(logger *zap.Logger, reports *service.ReportService) *ReportHandler {
	return &ReportHandler{logger: logger, reports: reports}
}

// Explanation maneja GET /valuations/:id/explanation.
func (h *ReportHandler) Explanation(c *gin.Context) {
	claims := mustClaims(c)
	exp, err := h.reports.Explain(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not explain valuation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": exp})
}

// Market maneja GET /valuations/:id/market.
func (h *ReportHandler) Market(c *gin.Context) {
	claims := mustClaims(c)
	cmp, err := h.reports.Market(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not compare market")
		return
	}
	c.JSON(http.StatusOK, gin.H{"market": cmp})
}

// MarketChart maneja GET /valuations/:id/market/chart.
func (h *ReportHandler) MarketChart(c *gin.Context) {
	claims := mustClaims(c)
	page, err := h.reports.MarketChart(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not render market chart")
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// PDF maneja GET /valuations/:id/report.pdf.
func (h *ReportHandler) PDF(c *gin.Context) {
	claims := mustClaims(c)
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.reports.WritePDF(c.Request.Context(), claims.UserID, claims.Role, id, &buf); err != nil {
		respondError(c, h.logger, err, "could not render report")
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="valuation-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Email maneja POST /valuations/:id/email.
func (h *ReportHandler) Email(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid email report request", err)
		return
	}
	claims := mustClaims(c)
	to := req.Email
	if to == "" {
		to = claims.Email
	}
	if err := h.reports.EmailReport(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"), to); err != nil {
		respondError(c, h.logger, err, "could not email report")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

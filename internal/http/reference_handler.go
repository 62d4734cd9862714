package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// ReferenceHandler expone marcas, modelos, años y codigos postales.
type ReferenceHandler struct {
	logger  *zap.Logger
	refServ *service.ReferenceService
}

func NewReferenceHandler(logger *zap.Logger, refServ *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{logger: logger, refServ: refServ}
}

// ListMakes maneja GET /reference/makes.
func (h *ReferenceHandler) ListMakes(c *gin.Context) {
	makes, err := h.refServ.ListMakes(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "could not list makes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"makes": makes})
}

// ListModels maneja GET /reference/makes/:id/models.
func (h *ReferenceHandler) ListModels(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	models, err := h.refServ.ListModels(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "could not list models")
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// ListYears maneja GET /reference/models/:id/years.
func (h *ReferenceHandler) ListYears(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	years, err := h.refServ.ListYears(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "could not list years")
		return
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

// LookupZip maneja GET /reference/zip/:code.
func (h *ReferenceHandler) LookupZip(c *gin.Context) {
	zip, err := h.refServ.LookupZip(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, h.logger, err, "could not lookup zip")
		return
	}
	c.JSON(http.StatusOK, gin.H{"zip": zip})
}

// InvalidateCache maneja POST /admin/reference/invalidate.
func (h *ReferenceHandler) InvalidateCache(c *gin.Context) {
	if err := h.refServ.Invalidate(c.Request.Context()); err != nil {
		respondError(c, h.logger, err, "could not invalidate reference cache")
		return
	}
	c.Status(http.StatusNoContent)
}

func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return n, true
}

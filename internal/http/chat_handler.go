package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autovalue/internal/service"
)

// ChatHandler mantiene dependencias para endpoints de sesiones y mensajes.
type ChatHandler struct {
	logger   *zap.Logger
	chatServ *service.ChatService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{logger: logger, chatServ: chatServ}
}

// CreateSession maneja POST /chat/sessions.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req struct {
		ValuationID string `json:"valuation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid create session request", err)
		return
	}
	claims := mustClaims(c)

	session, err := h.chatServ.CreateSession(c.Request.Context(), claims.UserID, claims.Role, req.ValuationID)
	if err != nil {
		respondError(c, h.logger, err, "could not create session")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListMessages maneja GET /chat/sessions/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	claims := mustClaims(c)
	msgs, err := h.chatServ.ListMessages(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not list messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage maneja POST /chat/sessions/:id/messages.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "invalid post message request", err)
		return
	}
	claims := mustClaims(c)

	question, reply, err := h.chatServ.SendMessage(c.Request.Context(), claims.UserID, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, h.logger, err, "could not post message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_message":      question,
		"assistant_message": reply,
	})
}

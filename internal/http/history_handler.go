package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hashchat/internal/service"
)

// HistoryHandler sirve el historial de una conversacion.
type HistoryHandler struct {
	logger  *zap.Logger
	history *service.HistoryService
}

func NewHistoryHandler(logger *zap.Logger, history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{logger: logger, history: history}
}

// List maneja GET /api/messages/:userId/:otherUserId.
func (h *HistoryHandler) List(c *gin.Context) {
	claims, _ := GetAuthClaims(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	msgs, err := h.history.List(c.Request.Context(), claims.UserID, c.Param("userId"), c.Param("otherUserId"), limit)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("history fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

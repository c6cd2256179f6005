package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-service/internal/service/habit"
)

type GamificationHandler struct {
	habitService *habit.Service
	logger       *zap.Logger
}

func NewGamificationHandler(habitService *habit.Service, logger *zap.Logger) *GamificationHandler {
	return &GamificationHandler{
		habitService: habitService,
		logger:       logger,
	}
}

// Summary handles GET /gamification
func (h *GamificationHandler) Summary(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	summary, err := h.habitService.Gamification(c.Request.Context(), uid)
	if err != nil {
		respondError(c, h.logger, "Gamification", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-service/internal/service/habit"
	"habit-service/internal/stats"
)

type CompletionHandler struct {
	habitService *habit.Service
	logger       *zap.Logger
}

func NewCompletionHandler(habitService *habit.Service, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{
		habitService: habitService,
		logger:       logger,
	}
}

// MarkComplete handles POST /habits/:id/complete
func (h *CompletionHandler) MarkComplete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	// an absent body means "today"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Date == "" {
		req.Date = stats.FormatDay(timeNow())
	}

	updated, err := h.habitService.MarkComplete(c.Request.Context(), uid, c.Param("id"), req.Date)
	if err != nil {
		h.respondError(c, "MarkComplete", err)
		return
	}

	c.JSON(http.StatusCreated, updated)
}

// UnmarkComplete handles DELETE /habits/:id/complete
func (h *CompletionHandler) UnmarkComplete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	date := c.Query("date")
	if date == "" {
		date = stats.FormatDay(timeNow())
	}

	updated, err := h.habitService.UnmarkComplete(c.Request.Context(), uid, c.Param("id"), date)
	if err != nil {
		h.respondError(c, "UnmarkComplete", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ListCompletions handles GET /habits/:id/completions
func (h *CompletionHandler) ListCompletions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	events, err := h.habitService.ListCompletions(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.respondError(c, "ListCompletions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"completions": events})
}

// CompletionRate handles GET /habits/:id/rate?window=30
func (h *CompletionHandler) CompletionRate(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	window := 30
	if raw := c.Query("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window"})
			return
		}
		window = parsed
	}

	rate, err := h.habitService.CompletionRate(c.Request.Context(), uid, c.Param("id"), window)
	if err != nil {
		h.respondError(c, "CompletionRate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit_id": c.Param("id"),
		"window":   window,
		"rate":     rate,
	})
}

func (h *CompletionHandler) respondError(c *gin.Context, op string, err error) {
	respondError(c, h.logger, op, err)
}

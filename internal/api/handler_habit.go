package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-service/internal/service/habit"
)

type HabitHandler struct {
	habitService *habit.Service
	logger       *zap.Logger
}

func NewHabitHandler(habitService *habit.Service, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{
		habitService: habitService,
		logger:       logger,
	}
}

// CreateHabit handles POST /habits
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req habit.CreateHabitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	created, err := h.habitService.CreateHabit(c.Request.Context(), uid, req)
	if err != nil {
		h.respondError(c, "CreateHabit", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListHabits handles GET /habits
func (h *HabitHandler) ListHabits(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	habits, err := h.habitService.ListHabits(c.Request.Context(), uid)
	if err != nil {
		h.respondError(c, "ListHabits", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

// GetHabit handles GET /habits/:id
func (h *HabitHandler) GetHabit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	found, err := h.habitService.GetHabit(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		h.respondError(c, "GetHabit", err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// UpdateHabit handles PUT /habits/:id
func (h *HabitHandler) UpdateHabit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req habit.UpdateHabitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.habitService.UpdateHabit(c.Request.Context(), uid, c.Param("id"), req)
	if err != nil {
		h.respondError(c, "UpdateHabit", err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteHabit handles DELETE /habits/:id
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.habitService.DeleteHabit(c.Request.Context(), uid, c.Param("id")); err != nil {
		h.respondError(c, "DeleteHabit", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *HabitHandler) respondError(c *gin.Context, op string, err error) {
	respondError(c, h.logger, op, err)
}

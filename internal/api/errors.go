package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habit-service/internal/model"
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// respondError maps domain errors to HTTP statuses; anything unrecognized
// is treated as a storage failure.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, model.ErrDuplicateCompletion):
		c.JSON(http.StatusConflict, gin.H{"error": "already completed for this date"})
	default:
		logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	habitHandler *HabitHandler,
	completionHandler *CompletionHandler,
	gamificationHandler *GamificationHandler,
	jwtSecret string,
	db *pgxpool.Pool,
) *Router {
	r := gin.Default()
	r.Use(MetricsMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/habits", habitHandler.CreateHabit)
		auth.GET("/habits", habitHandler.ListHabits)
		auth.GET("/habits/:id", habitHandler.GetHabit)
		auth.PUT("/habits/:id", habitHandler.UpdateHabit)
		auth.DELETE("/habits/:id", habitHandler.DeleteHabit)

		auth.POST("/habits/:id/complete", completionHandler.MarkComplete)
		auth.DELETE("/habits/:id/complete", completionHandler.UnmarkComplete)
		auth.GET("/habits/:id/completions", completionHandler.ListCompletions)
		auth.GET("/habits/:id/rate", completionHandler.CompletionRate)

		auth.GET("/gamification", gamificationHandler.Summary)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}

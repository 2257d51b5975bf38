package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GlasgowC3lab/ichnos/api/handlers"
	"github.com/GlasgowC3lab/ichnos/internal/config"
)

func SetupRouter(db *pgxpool.Pool, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.POST("/ingress/v1/footprint", handlers.ComputeHandler(db, cfg))
		api.GET("/footprint/v1/runs", handlers.QueryRunsHandler(db))
		api.GET("/footprint/v1/tasks", handlers.QueryTasksHandler(db))
	}

	return r
}

package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fidmor2026/zaapar/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "zaapar-api-service",
		})
	})

	documentHandler := handler.NewDocumentHandler(deps)
	matchHandler := handler.NewMatchHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// POST /api/v1/documents - Submit an extracted document for profiling
		v1.POST("/documents", documentHandler.SubmitDocument)

		// GET /api/v1/jobs/:job_id - Poll a ledger entry
		v1.GET("/jobs/:job_id", documentHandler.GetJob)

		// GET /api/v1/matches - Ranked listings for a query
		v1.GET("/matches", matchHandler.GetMatches)
	}

	return r
}

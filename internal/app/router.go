package app

import (
	"net/http"
	"strings"

	"propertyagent/internal/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// BuildInfo is reported by /health and /version
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// NewRouter mounts the API on a gin engine
func NewRouter(a *App, info BuildInfo) *gin.Engine {
	cfg := a.Config

	uploadHandler := handler.NewUploadHandler(a.Agent, cfg.Session.Header, cfg.Session.DefaultID)
	statusHandler := handler.NewUploadStatusHandler(a.Uploader)
	listingHandler := handler.NewListingHandler(a.Catalog)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.AllowedOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", cfg.Session.Header}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "property-upload-agent",
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
			"llm":        a.AI.IsEnabled(),
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    info.Version,
			"build_time": info.BuildTime,
			"git_commit": info.GitCommit,
		})
	})

	if a.Metrics != nil {
		router.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	}

	apiV1 := router.Group("/api/v1")
	{
		// Conversation
		apiV1.POST("/upload-property", uploadHandler.UploadProperty)
		apiV1.POST("/reset-session", uploadHandler.ResetSession)
		apiV1.GET("/session", uploadHandler.Session)

		// Upload progress
		apiV1.GET("/uploads/latest", uploadHandler.LatestUpload)
		apiV1.GET("/uploads/:id", statusHandler.Get)
		apiV1.GET("/uploads/:id/stream", statusHandler.Stream)

		apiV1.GET("/listings/:id", listingHandler.GetListing)
	}

	return router
}

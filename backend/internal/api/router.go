package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"newsgraph/backend/internal/auth"
)

// NewRouter wires middleware and routes. A nil verifier leaves every caller anonymous.
func NewRouter(h *Handler, verifier *auth.Verifier, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors())
	router.Use(auth.Middleware(verifier))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/articles/geo", h.GeoNearest)
		api.GET("/articles/search", h.TextSearch)
		api.GET("/articles/:id", h.Article)
		api.GET("/articles/:id/similar", h.SimilarArticles)
		api.GET("/topics", h.Topics)
		api.GET("/me/comments", h.MyComments)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/refresh", h.Refresh)
	}

	return router
}

// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	billingapi "github.com/verdictapp/verdict/internal/api/billing"
	"github.com/verdictapp/verdict/internal/api/marketplace"
	"github.com/verdictapp/verdict/internal/config"
)

// HealthChecker reports readiness of a backing service.
type HealthChecker interface {
	Health() error
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(
	cfg *config.Config,
	marketplaceHandler *marketplace.Handler,
	billingHandler *billingapi.Handler,
	db HealthChecker,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/session", marketplaceHandler.InitSession)
		v1.GET("/profile", marketplaceHandler.GetProfile)

		v1.POST("/requests", marketplaceHandler.CreateRequest)
		v1.GET("/requests", marketplaceHandler.ListOpenRequests)
		v1.GET("/requests/mine", marketplaceHandler.ListMyRequests)
		v1.GET("/requests/:id", marketplaceHandler.GetRequest)
		v1.POST("/requests/:id/verdicts", marketplaceHandler.SubmitVerdict)
		v1.POST("/requests/:id/cancel", marketplaceHandler.CancelRequest)

		v1.GET("/earnings/summary", marketplaceHandler.GetEarningsSummary)

		if billingHandler != nil {
			v1.POST("/billing/checkout", billingHandler.CreateCheckout)
			v1.POST("/billing/webhook", billingHandler.Webhook)
		}
	}

	return router
}

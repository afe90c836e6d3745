package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the scanner API and the metrics endpoint.
func SetupRoutes(router *gin.Engine, h *Handler, gatherer prometheus.Gatherer) {
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scan", h.Scan)
		v1.POST("/deep-scan", h.DeepScan)
		v1.POST("/classify", h.Classify)
		v1.POST("/score", h.Score)

		scans := v1.Group("/scans")
		scans.GET("", h.GetScan)
		scans.DELETE("", h.DeleteScan)
	}
}

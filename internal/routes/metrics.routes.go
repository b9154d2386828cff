package routes

import (
	"streamwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterMonitorRoutes registers the live snapshot and history routes.
func RegisterMonitorRoutes(r gin.IRouter, ctl *controllers.Controller) {
	metrics := r.Group("/metrics")
	{
		metrics.GET("/current", ctl.GetCurrent)
		metrics.GET("/status", ctl.GetStatus)
		metrics.GET("/history", ctl.GetMetricHistory)
		metrics.GET("/history/all", ctl.GetAllHistory)
	}
}

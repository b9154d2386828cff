package routes

import (
	"streamwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterProcessRoutes(r gin.IRouter, ctl *controllers.Controller) {
	processes := r.Group("/processes")
	{
		processes.GET("/monitored", ctl.GetMonitoredProcess)
	}
}

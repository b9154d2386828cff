package routes

import (
	"streamwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterSessionRoutes(r gin.IRouter, ctl *controllers.Controller) {
	sessions := r.Group("/sessions")
	{
		sessions.GET("", ctl.ListSessions)
		sessions.POST("", ctl.CreateSession)
		sessions.GET("/compare", ctl.CompareSessions)
		sessions.GET("/error", ctl.GetSessionError)
		sessions.DELETE("/error", ctl.ClearSessionError)
		sessions.GET("/:id", ctl.GetSession)
		sessions.GET("/:id/metrics", ctl.GetSessionMetrics)
	}
}

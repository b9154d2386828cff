package routes

import (
	"streamwatch/internal/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the WebSocket endpoint and token check.
// Tokens are issued by the CLI only.
func RegisterAuthRoutes(r gin.IRouter, ctl *controllers.Controller) {
	r.GET("/ws", ctl.HandleWebSocket)
	r.GET("/auth/status", ctl.HandleTokenStatus)
}

package controllers

import (
	"errors"
	"net/http"

	"streamwatch/internal/middleware"
	"streamwatch/internal/models"
	"streamwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Controller holds the services the HTTP handlers read from.
type Controller struct {
	poller     *services.Poller
	classifier *services.Classifier
	sessions   *services.SessionService
	hub        *services.WebSocketHub
	auth       *services.AuthService
	security   *middleware.SecurityLogger
	log        *zap.Logger
	upgrader   websocket.Upgrader
}

// Deps lists the collaborators of a Controller.
type Deps struct {
	Poller         *services.Poller
	Classifier     *services.Classifier
	Sessions       *services.SessionService
	Hub            *services.WebSocketHub
	Auth           *services.AuthService
	Security       *middleware.SecurityLogger
	Logger         *zap.Logger
	AllowedOrigins []string
}

// New creates a Controller.
func New(d Deps) *Controller {
	origins := d.AllowedOrigins
	return &Controller{
		poller:     d.Poller,
		classifier: d.Classifier,
		sessions:   d.Sessions,
		hub:        d.Hub,
		auth:       d.Auth,
		security:   d.Security,
		log:        d.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				if origin == "" {
					return true
				}
				return middleware.OriginAllowed(origin, origins)
			},
		},
	}
}

// respondError writes err as {"error": ...} with a status derived from its kind.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrInvalidSession):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrSessionExists):
		status = http.StatusConflict
	case errors.Is(err, models.ErrTransport):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

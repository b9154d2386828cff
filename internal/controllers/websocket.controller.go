package controllers

import (
	"net/http"
	"strings"
	"time"

	"streamwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// HandleWebSocket upgrades an authenticated client and subscribes it to
// live snapshots.
func (ctl *Controller) HandleWebSocket(c *gin.Context) {
	// Extract and validate token from query parameter
	token := c.Query("token")
	if token == "" {
		ctl.security.LogFailedAuth(c.ClientIP(), "missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := ctl.auth.ValidateToken(token)
	if err != nil {
		ctl.security.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ctl.security.LogWebSocketConnected(c.ClientIP(), claims.ServerName)

	client := &services.ClientConnection{
		ID:    c.ClientIP() + "-" + claims.ServerName + "-" + strings.ReplaceAll(c.Request.RemoteAddr, ":", "_"),
		Conn:  ws,
		Send:  make(chan services.WebSocketMessage, 256),
		Close: make(chan bool),
	}

	if !ctl.hub.Register(client) {
		ws.Close()
		return
	}

	go ctl.readPump(client)
	go ctl.writePump(client)
}

// readPump reads messages from the WebSocket client
func (ctl *Controller) readPump(client *services.ClientConnection) {
	defer func() {
		ctl.hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ctl.log.Warn("websocket read failed", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			if !ctl.reply(client, services.WebSocketMessage{Type: "pong", Timestamp: time.Now()}) {
				return
			}

		case "subscribe":
			// Already subscribed on connect.
			ctl.log.Debug("client subscribed", zap.String("client", client.ID))

		case "unsubscribe":
			return

		default:
			ctl.log.Debug("unknown message type", zap.String("client", client.ID), zap.String("type", msg.Type))
		}
	}
}

func (ctl *Controller) reply(client *services.ClientConnection, msg services.WebSocketMessage) bool {
	select {
	case client.Send <- msg:
		return true
	case <-client.Close:
		return false
	default:
		return false
	}
}

// writePump writes messages to the WebSocket client
func (ctl *Controller) writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped the client.
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					ctl.log.Warn("websocket write failed", zap.String("client", client.ID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-client.Close:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// HandleTokenStatus checks a token from the Authorization header or the
// token query parameter.
func (ctl *Controller) HandleTokenStatus(c *gin.Context) {
	var token string
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if token == "" {
		token = c.Query("token")
	}

	if token == "" {
		ctl.security.LogFailedAuth(c.ClientIP(), "missing token in header or query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required in Authorization header or query parameter"})
		return
	}

	claims, err := ctl.auth.ValidateToken(token)
	if err != nil {
		ctl.security.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"server":     claims.ServerName,
		"expires_at": claims.ExpiresAt.Time,
		"issued_at":  claims.IssuedAt.Time,
	})
}

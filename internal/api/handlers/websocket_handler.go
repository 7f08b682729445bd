// internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"
	"time"

	"field-service-api/internal/auth"
	"field-service-api/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Maximum time to wait for the next message from the client.
const pongWait = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub *socket.Hub
	// Tokens is nil when auth is disabled.
	Tokens *auth.TokenManager
	Log    *zap.Logger
}

// ServeWs upgrades the request and keeps the connection registered on the
// hub until the client goes away.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	subject := "anonymous"
	if h.Tokens != nil {
		tokenString := c.Query("token")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
			return
		}
		claims, err := h.Tokens.Parse(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		subject = claims.Subject
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	h.Hub.Register(clientID, conn)
	h.Log.Info("websocket connected", zap.String("client", clientID), zap.String("user", subject))

	defer func() {
		h.Hub.Unregister(clientID)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	// A custom ping handler replaces the default one, so it writes the pong too.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Warn("websocket closed unexpectedly", zap.String("client", clientID), zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

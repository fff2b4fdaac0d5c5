package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Mkw68Mkw/fast-chat/internal/config"
	"github.com/Mkw68Mkw/fast-chat/internal/domain"
	"github.com/Mkw68Mkw/fast-chat/internal/hub"
	"github.com/Mkw68Mkw/fast-chat/internal/service"
	"github.com/Mkw68Mkw/fast-chat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades realtime channel requests and hands the connection to
// the chat service.
type WSHandler struct {
	service service.ChatService
	wsCfg   config.WebSocketConfig
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		service: svc,
		wsCfg:   wsCfg,
	}
}

// RegisterRoutes registers the realtime channel endpoint.
func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws/chatrooms/:id", h.HandleWebSocket)
}

// HandleWebSocket serves GET /ws/chatrooms/:id?token=<jwt>. The credential
// travels as a query parameter because browser websocket clients cannot set
// headers on the upgrade request. Authentication happens after the upgrade
// so a rejected client receives a policy close code instead of a bare
// failed handshake.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	roomID := c.Param("id")
	credential := c.Query("token")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := domain.NewSession(uuid.New().String(), roomID)
	client := hub.NewClient(conn, session, hub.Options{
		PingInterval:   h.wsCfg.PingInterval,
		PongWait:       h.wsCfg.PongWait,
		WriteWait:      h.wsCfg.WriteWait,
		MaxMessageSize: h.wsCfg.MaxMessageSize,
		SendBuffer:     h.wsCfg.SendBuffer,
	})

	go client.WritePump()

	// Run blocks for the lifetime of the connection. The upgrade hijacked
	// the connection from the HTTP server, so blocking here only holds
	// this connection's goroutine.
	h.service.Run(c.Request.Context(), client, credential)
}

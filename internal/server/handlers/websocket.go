package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/campustransit/farebeacon/internal/server/websocket"
	"github.com/campustransit/farebeacon/pkg/config"
)

// WebSocketHandler upgrades dashboard clients onto the bus-position feed.
type WebSocketHandler struct {
	hub      *websocket.WsHub
	upgrader gws.Upgrader
}

func NewWebSocketHandler(hub *websocket.WsHub, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: gws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				if !cfg.CheckOrigin {
					return true
				}
				origin, err := url.Parse(r.Header.Get("Origin"))
				if err != nil {
					return false
				}
				return origin.Host == r.Host
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Failed to upgrade to WebSocket",
		})
		return
	}

	h.hub.Register <- conn

	// The feed is push-only; the read loop just detects disconnects.
	go func() {
		defer func() {
			h.hub.Unregister <- conn
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

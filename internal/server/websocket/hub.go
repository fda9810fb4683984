package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/campustransit/farebeacon/internal/domain/models"
)

// WsHub fans bus-position updates out to every connected dashboard client.
// Positions are public campus data, so there is no per-client routing.
type WsHub struct {
	Clients    map[*websocket.Conn]bool
	Broadcast  chan WsMessage
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Logger     zerolog.Logger
}

type WsMessage struct {
	Type     string                    `json:"type"`
	Position *models.BusPositionUpdate `json:"position,omitempty"`
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	return &WsHub{
		Clients:    make(map[*websocket.Conn]bool),
		Broadcast:  make(chan WsMessage, 100),
		Register:   make(chan *websocket.Conn, 100),
		Unregister: make(chan *websocket.Conn, 100),
		Logger:     logger,
	}
}

func (h *WsHub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.Clients[conn] = true
			h.Logger.Info().
				Int("connection_count", len(h.Clients)).
				Msg("WebSocket client registered")

		case conn := <-h.Unregister:
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
				h.Logger.Info().
					Int("connection_count", len(h.Clients)).
					Msg("WebSocket client unregistered")
			}

		case message := <-h.Broadcast:
			for conn := range h.Clients {
				if err := conn.WriteJSON(message); err != nil {
					h.Logger.Err(err).
						Str("type", message.Type).
						Msg("Failed to send WebSocket message")
					conn.Close()
					delete(h.Clients, conn)
				}
			}
		}
	}
}

// BroadcastPosition queues one position update for every dashboard client.
func (h *WsHub) BroadcastPosition(update models.BusPositionUpdate) {
	h.Logger.Info().
		Str("bus_id", update.BusID).
		Str("stop", update.CurrentStop).
		Msg("Broadcasting bus position update")
	h.Broadcast <- WsMessage{
		Type:     "bus_position",
		Position: &update,
	}
}

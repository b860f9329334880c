package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"worship-presenter/internal/services"
)

// WebSocketHandler upgrades sync connections and hands them to the relay
type WebSocketHandler struct {
	wsService *services.WebSocketService
	upgrader  websocket.Upgrader
	log       *slog.Logger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(wsService *services.WebSocketService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		wsService: wsService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Outputs are opened from projector machines on the same LAN.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logger,
	}
}

// ServeWS joins a connection to a sync channel
// GET /ws/{channel}
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["channel"]
	if name == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "channel", name, "error", err)
		return
	}
	h.wsService.ServeClient(conn, name)
}

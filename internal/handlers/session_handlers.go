package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"worship-presenter/internal/services"
)

// SessionHandler handles HTTP requests for service-to-channel links
type SessionHandler struct {
	store *services.SessionStore
	log   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *services.SessionStore, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{store: store, log: logger}
}

// LinkSessionRequest represents a request to link a service to a channel
type LinkSessionRequest struct {
	ServiceID string `json:"serviceId"`
	Channel   string `json:"channel"`
}

// LinkSessionResponse represents the response
type LinkSessionResponse struct {
	Success bool                   `json:"success"`
	Session services.SessionRecord `json:"session"`
}

// LinkSession links a service to a channel
// POST /api/sessions/link
func (h *SessionHandler) LinkSession(w http.ResponseWriter, r *http.Request) {
	var req LinkSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ServiceID == "" {
		http.Error(w, "serviceId is required", http.StatusBadRequest)
		return
	}
	if req.Channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	record, err := h.store.LinkChannel(req.ServiceID, req.Channel)
	if err != nil {
		h.log.Error("failed to link session", "service_id", req.ServiceID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, LinkSessionResponse{Success: true, Session: record})
}

// GetChannelResponse represents the response for looking up a service
type GetChannelResponse struct {
	Success bool   `json:"success"`
	Channel string `json:"channel,omitempty"`
}

// GetChannel gets the channel linked to a service
// GET /api/sessions/channel?serviceId=...
func (h *SessionHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	serviceID := r.URL.Query().Get("serviceId")
	if serviceID == "" {
		http.Error(w, "serviceId query parameter is required", http.StatusBadRequest)
		return
	}

	channel, found := h.store.FindChannel(serviceID)
	if !found {
		writeJSON(w, http.StatusOK, GetChannelResponse{Success: false})
		return
	}
	writeJSON(w, http.StatusOK, GetChannelResponse{Success: true, Channel: channel})
}

// ListSessions returns every link
// GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// UnlinkSession removes a link
// DELETE /api/sessions/{serviceId}
func (h *SessionHandler) UnlinkSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Unlink(mux.Vars(r)["serviceId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

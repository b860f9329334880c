package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes wires every handler onto a router
func SetupRoutes(wsHandler *WebSocketHandler, control *ControlHandler, scenes *SceneHandler, sessions *SessionHandler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger(logger))

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Sync channel
	router.HandleFunc("/ws/{channel}", wsHandler.ServeWS)

	api := router.PathPrefix("/api").Subrouter()

	// Channels and presenter control
	api.HandleFunc("/channels", control.ListChannels).Methods(http.MethodGet)
	ch := api.PathPrefix("/channels/{channel}").Subrouter()
	ch.HandleFunc("", control.StopChannel).Methods(http.MethodDelete)
	ch.HandleFunc("/state", control.GetState).Methods(http.MethodGet)
	ch.HandleFunc("/frame", control.GetFrame).Methods(http.MethodGet)
	ch.HandleFunc("/sync", control.BroadcastState).Methods(http.MethodPost)
	ch.HandleFunc("/slides", control.LoadSlides).Methods(http.MethodPost)
	ch.HandleFunc("/navigate", control.Navigate).Methods(http.MethodPost)
	ch.HandleFunc("/black", control.SetBlack).Methods(http.MethodPost)
	ch.HandleFunc("/live", control.SetLive).Methods(http.MethodPost)
	ch.HandleFunc("/logo", control.UpdateLogo).Methods(http.MethodPatch)
	ch.HandleFunc("/logo/overrides/{index}", control.SetLogoOverride).Methods(http.MethodPut)
	ch.HandleFunc("/logo/overrides/{index}", control.RemoveLogoOverride).Methods(http.MethodDelete)
	ch.HandleFunc("/styles", control.ApplyStyles).Methods(http.MethodPost)
	ch.HandleFunc("/styles/reset", control.ResetStyles).Methods(http.MethodPost)
	ch.HandleFunc("/styles/auto", control.AutoApplyStyles).Methods(http.MethodPost)
	ch.HandleFunc("/styles/pending", control.GetPendingStyles).Methods(http.MethodGet)
	ch.HandleFunc("/styles/pending", control.DiscardStyles).Methods(http.MethodDelete)
	ch.HandleFunc("/styles/confirm", control.ConfirmStyles).Methods(http.MethodPost)
	ch.HandleFunc("/styles/flush", control.FlushStyles).Methods(http.MethodPost)
	ch.HandleFunc("/scene/enter", control.EnterElement).Methods(http.MethodPost)
	ch.HandleFunc("/scene/leave", control.LeaveElement).Methods(http.MethodPost)
	ch.HandleFunc("/props/{propId}/show", control.ShowProp).Methods(http.MethodPost)
	ch.HandleFunc("/props/{propId}/hide", control.HideProp).Methods(http.MethodPost)
	ch.HandleFunc("/overlays/text", control.UpsertTextOverlay).Methods(http.MethodPut)
	ch.HandleFunc("/overlays/image", control.UpsertImageOverlay).Methods(http.MethodPut)
	ch.HandleFunc("/overlays/{id}", control.RemoveOverlay).Methods(http.MethodDelete)
	ch.HandleFunc("/overlays/{id}/move", control.MoveOverlay).Methods(http.MethodPost)
	ch.HandleFunc("/video", control.SetVideoBackground).Methods(http.MethodPut)
	ch.HandleFunc("/video", control.ClearVideoBackground).Methods(http.MethodDelete)

	// Scene templates and element looks
	api.HandleFunc("/scenes", scenes.ListScenes).Methods(http.MethodGet)
	api.HandleFunc("/scenes/import", scenes.ImportScenes).Methods(http.MethodPost)
	api.HandleFunc("/scenes/{elementType}", scenes.GetScene).Methods(http.MethodGet)
	api.HandleFunc("/scenes/{elementType}", scenes.PutScene).Methods(http.MethodPut)
	api.HandleFunc("/scenes/{elementType}", scenes.DeleteScene).Methods(http.MethodDelete)
	api.HandleFunc("/looks/{elementId}", scenes.GetLook).Methods(http.MethodGet)
	api.HandleFunc("/looks/{elementId}", scenes.PutLook).Methods(http.MethodPut)
	api.HandleFunc("/looks/{elementId}", scenes.DeleteLook).Methods(http.MethodDelete)

	// Sessions
	api.HandleFunc("/sessions", sessions.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions/link", sessions.LinkSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/channel", sessions.GetChannel).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{serviceId}", sessions.UnlinkSession).Methods(http.MethodDelete)

	return router
}

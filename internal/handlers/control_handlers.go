package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"worship-presenter/internal/models"
	"worship-presenter/internal/scene"
	"worship-presenter/internal/services"
	"worship-presenter/internal/style"
	"worship-presenter/internal/syncproto"
)

// ControlHandler exposes the presenter control surface of each channel
type ControlHandler struct {
	presenters *services.PresenterService
	wsService  *services.WebSocketService
	log        *slog.Logger
}

// NewControlHandler creates a new control handler
func NewControlHandler(presenters *services.PresenterService, wsService *services.WebSocketService, logger *slog.Logger) *ControlHandler {
	return &ControlHandler{presenters: presenters, wsService: wsService, log: logger}
}

// ChannelInfo describes a channel in the channel list
type ChannelInfo struct {
	services.ChannelStats
	Presenter bool `json:"presenter"`
}

// ListChannels returns every open channel with its client count
// GET /api/channels
func (h *ControlHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	stats := h.wsService.Channels()
	out := make([]ChannelInfo, 0, len(stats))
	for _, s := range stats {
		_, running := h.presenters.Lookup(s.Name)
		out = append(out, ChannelInfo{ChannelStats: s, Presenter: running})
	}
	writeJSON(w, http.StatusOK, out)
}

// StopChannel closes the presenter of a channel; outputs keep their last frame
// DELETE /api/channels/{channel}
func (h *ControlHandler) StopChannel(w http.ResponseWriter, r *http.Request) {
	if !h.presenters.Stop(mux.Vars(r)["channel"]) {
		http.Error(w, "presenter not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ControlHandler) presenter(r *http.Request) *syncproto.Presenter {
	return h.presenters.Get(mux.Vars(r)["channel"])
}

func (h *ControlHandler) lookup(w http.ResponseWriter, r *http.Request) (*syncproto.Presenter, bool) {
	p, ok := h.presenters.Lookup(mux.Vars(r)["channel"])
	if !ok {
		http.Error(w, "presenter not found", http.StatusNotFound)
	}
	return p, ok
}

// respond answers a control operation with the resulting state
func respond(w http.ResponseWriter, p *syncproto.Presenter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// GetState returns the presenter's state
// GET /api/channels/{channel}/state
func (h *ControlHandler) GetState(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// GetFrame returns what outputs on the channel render
// GET /api/channels/{channel}/frame
func (h *ControlHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.Frame())
}

// BroadcastState resends the full state to every output
// POST /api/channels/{channel}/sync
func (h *ControlHandler) BroadcastState(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	p.BroadcastState()
	respond(w, p, nil)
}

// LoadSlides replaces the deck
// POST /api/channels/{channel}/slides
func (h *ControlHandler) LoadSlides(w http.ResponseWriter, r *http.Request) {
	var req models.SlidesPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.LoadSlides(r.Context(), req.Slides))
}

// Navigate moves to a slide
// POST /api/channels/{channel}/navigate
func (h *ControlHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req models.NavigatePayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.Navigate(r.Context(), req.SlideIndex))
}

// SetBlack blanks or restores the output
// POST /api/channels/{channel}/black
func (h *ControlHandler) SetBlack(w http.ResponseWriter, r *http.Request) {
	var req models.FlagPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.SetBlack(req.Value))
}

// SetLive toggles live mode
// POST /api/channels/{channel}/live
func (h *ControlHandler) SetLive(w http.ResponseWriter, r *http.Request) {
	var req models.FlagPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.SetLive(req.Value))
}

// UpdateLogo patches the global logo
// PATCH /api/channels/{channel}/logo
func (h *ControlHandler) UpdateLogo(w http.ResponseWriter, r *http.Request) {
	var patch models.LogoOverride
	if !decodeJSON(w, r, &patch) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.UpdateGlobalLogo(patch))
}

func slideIndexVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "slide index must be a number", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

// SetLogoOverride merges a per-slide logo override
// PUT /api/channels/{channel}/logo/overrides/{index}
func (h *ControlHandler) SetLogoOverride(w http.ResponseWriter, r *http.Request) {
	idx, ok := slideIndexVar(w, r)
	if !ok {
		return
	}
	var patch models.LogoOverride
	if !decodeJSON(w, r, &patch) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.SetLogoOverride(idx, patch))
}

// RemoveLogoOverride drops a per-slide logo override
// DELETE /api/channels/{channel}/logo/overrides/{index}
func (h *ControlHandler) RemoveLogoOverride(w http.ResponseWriter, r *http.Request) {
	idx, ok := slideIndexVar(w, r)
	if !ok {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.RemoveLogoOverride(idx))
}

// ApplyStyles writes styles into one layer
// POST /api/channels/{channel}/styles
func (h *ControlHandler) ApplyStyles(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyStylesPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.ApplyStyles(req.Styles, req.Scope))
}

// ResetStyles clears one layer
// POST /api/channels/{channel}/styles/reset
func (h *ControlHandler) ResetStyles(w http.ResponseWriter, r *http.Request) {
	var req models.ResetStylesPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.ResetStyles(req.Scope))
}

// PendingStylesResponse describes a style change held for confirmation
type PendingStylesResponse struct {
	Pending bool               `json:"pending"`
	Styles  *style.SlideStyles `json:"styles,omitempty"`
	Scope   *style.Scope       `json:"scope,omitempty"`
}

func pendingResponse(p *syncproto.Presenter) PendingStylesResponse {
	styles, scope, ok := p.PendingStyles()
	if !ok {
		return PendingStylesResponse{}
	}
	return PendingStylesResponse{Pending: true, Styles: &styles, Scope: &scope}
}

// AutoApplyStyles feeds live editor input through the debouncer. A change
// held for a multi-colour slide answers 202 with the pending change.
// POST /api/channels/{channel}/styles/auto
func (h *ControlHandler) AutoApplyStyles(w http.ResponseWriter, r *http.Request) {
	var req models.ApplyStylesPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	p := h.presenter(r)
	err := p.AutoApplyStyles(req.Styles, req.Scope)
	switch {
	case errors.Is(err, style.ErrConfirmRequired):
		writeJSON(w, http.StatusAccepted, pendingResponse(p))
	case err != nil:
		writeError(w, err)
	default:
		writeJSON(w, http.StatusAccepted, PendingStylesResponse{})
	}
}

// GetPendingStyles returns the change awaiting confirmation
// GET /api/channels/{channel}/styles/pending
func (h *ControlHandler) GetPendingStyles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pendingResponse(p))
}

// ConfirmStyles applies the held change
// POST /api/channels/{channel}/styles/confirm
func (h *ControlHandler) ConfirmStyles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if !p.ConfirmPendingStyles() {
		http.Error(w, "no pending style change", http.StatusNotFound)
		return
	}
	respond(w, p, nil)
}

// DiscardStyles drops the held change
// DELETE /api/channels/{channel}/styles/pending
func (h *ControlHandler) DiscardStyles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p.DiscardPendingStyles()
	w.WriteHeader(http.StatusNoContent)
}

// FlushStyles commits debounced input without waiting for the debounce
// POST /api/channels/{channel}/styles/flush
func (h *ControlHandler) FlushStyles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p.FlushStyles()
	respond(w, p, nil)
}

// EnterElementRequest represents a manual scene change
type EnterElementRequest struct {
	ElementType  string                   `json:"elementType"`
	ElementID    string                   `json:"elementId"`
	Placeholders scene.PlaceholderContext `json:"placeholders,omitempty"`
}

// EnterElement enters a liturgy element
// POST /api/channels/{channel}/scene/enter
func (h *ControlHandler) EnterElement(w http.ResponseWriter, r *http.Request) {
	var req EnterElementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ElementID == "" {
		http.Error(w, "elementId is required", http.StatusBadRequest)
		return
	}
	p := h.presenter(r)
	respond(w, p, p.EnterElement(r.Context(), req.ElementType, req.ElementID, req.Placeholders))
}

// LeaveElement clears every prop
// POST /api/channels/{channel}/scene/leave
func (h *ControlHandler) LeaveElement(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	respond(w, p, p.LeaveElement())
}

// ShowProp shows an armed prop
// POST /api/channels/{channel}/props/{propId}/show
func (h *ControlHandler) ShowProp(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	respond(w, p, p.ShowArmedProp(mux.Vars(r)["propId"]))
}

// HideProp hides an active prop
// POST /api/channels/{channel}/props/{propId}/hide
func (h *ControlHandler) HideProp(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	respond(w, p, p.HideProp(mux.Vars(r)["propId"]))
}

// UpsertTextOverlay adds or replaces a text overlay
// PUT /api/channels/{channel}/overlays/text
func (h *ControlHandler) UpsertTextOverlay(w http.ResponseWriter, r *http.Request) {
	var o models.TextOverlay
	if !decodeJSON(w, r, &o) {
		return
	}
	out, err := h.presenter(r).UpsertTextOverlay(o)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UpsertImageOverlay adds or replaces an image overlay
// PUT /api/channels/{channel}/overlays/image
func (h *ControlHandler) UpsertImageOverlay(w http.ResponseWriter, r *http.Request) {
	var o models.ImageOverlay
	if !decodeJSON(w, r, &o) {
		return
	}
	out, err := h.presenter(r).UpsertImageOverlay(o)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// RemoveOverlay removes an overlay
// DELETE /api/channels/{channel}/overlays/{id}
func (h *ControlHandler) RemoveOverlay(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	respond(w, p, p.RemoveOverlay(mux.Vars(r)["id"]))
}

// MoveOverlay places an overlay or the logo
// POST /api/channels/{channel}/overlays/{id}/move
func (h *ControlHandler) MoveOverlay(w http.ResponseWriter, r *http.Request) {
	var pos models.Position
	if !decodeJSON(w, r, &pos) {
		return
	}
	p := h.presenter(r)
	respond(w, p, p.MoveOverlay(mux.Vars(r)["id"], pos))
}

// SetVideoBackground sets the looping background; a null body clears it
// PUT /api/channels/{channel}/video
func (h *ControlHandler) SetVideoBackground(w http.ResponseWriter, r *http.Request) {
	var v *models.VideoBackground
	if !decodeJSON(w, r, &v) {
		return
	}
	if v != nil && v.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	p := h.presenter(r)
	respond(w, p, p.SetVideoBackground(v))
}

// ClearVideoBackground removes the looping background
// DELETE /api/channels/{channel}/video
func (h *ControlHandler) ClearVideoBackground(w http.ResponseWriter, r *http.Request) {
	p := h.presenter(r)
	respond(w, p, p.SetVideoBackground(nil))
}

package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"worship-presenter/internal/scene"
	"worship-presenter/internal/services"
)

// maxImportBytes bounds a catalog upload.
const maxImportBytes = 1 << 20

// SceneHandler handles HTTP requests for scene templates and element looks
type SceneHandler struct {
	store *services.SceneStore
	log   *slog.Logger
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(store *services.SceneStore, logger *slog.Logger) *SceneHandler {
	return &SceneHandler{store: store, log: logger}
}

// ListScenes returns every stored template
// GET /api/scenes
func (h *SceneHandler) ListScenes(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	// Always return an array, even if empty
	if templates == nil {
		templates = []scene.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// GetScene returns the template of an element type
// GET /api/scenes/{elementType}
func (h *SceneHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.store.GetTemplate(r.Context(), mux.Vars(r)["elementType"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// PutScene stores the default look of an element type
// PUT /api/scenes/{elementType}
func (h *SceneHandler) PutScene(w http.ResponseWriter, r *http.Request) {
	var look scene.Look
	if !decodeJSON(w, r, &look) {
		return
	}

	tpl, err := h.store.PutTemplate(r.Context(), scene.Template{
		ElementType: mux.Vars(r)["elementType"],
		Look:        look,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// DeleteScene removes a template
// DELETE /api/scenes/{elementType}
func (h *SceneHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTemplate(r.Context(), mux.Vars(r)["elementType"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportResponse reports how many templates an import stored
type ImportResponse struct {
	Success  bool `json:"success"`
	Imported int  `json:"imported"`
}

// ImportScenes validates a catalog document and stores its templates
// POST /api/scenes/import
func (h *SceneHandler) ImportScenes(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	n, err := h.store.ImportCatalog(r.Context(), data)
	if err != nil {
		h.log.Warn("scene import rejected", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Success: true, Imported: n})
}

// PutLookRequest represents a per-element look override
type PutLookRequest struct {
	ElementType string     `json:"elementType"`
	Look        scene.Look `json:"look"`
}

// GetLook returns the override of one element
// GET /api/looks/{elementId}
func (h *SceneHandler) GetLook(w http.ResponseWriter, r *http.Request) {
	look, err := h.store.GetElementLook(r.Context(), mux.Vars(r)["elementId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, look)
}

// PutLook overrides the look of one element
// PUT /api/looks/{elementId}
func (h *SceneHandler) PutLook(w http.ResponseWriter, r *http.Request) {
	var req PutLookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	look, err := h.store.PutElementLook(r.Context(), mux.Vars(r)["elementId"], req.ElementType, req.Look)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, look)
}

// DeleteLook removes an element override so its template applies again
// DELETE /api/looks/{elementId}
func (h *SceneHandler) DeleteLook(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteElementLook(r.Context(), mux.Vars(r)["elementId"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

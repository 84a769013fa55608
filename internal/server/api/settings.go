package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/store"
)

// SettingsHandler exposes the persisted setting overrides. Values are
// validated against the running configuration and take effect on restart.
//
//	GET    /api/settings
//	PUT    /api/settings        {"name": "value", ...}
//	DELETE /api/settings/{name}
type SettingsHandler struct {
	store *store.Store
	base  config.Config
}

// NewSettingsHandler creates a SettingsHandler. base is the configuration
// that stored overrides are checked against.
func NewSettingsHandler(s *store.Store, base config.Config) *SettingsHandler {
	return &SettingsHandler{store: s, base: base}
}

type settingsResponse struct {
	Settings map[string]string `json:"settings"`
	Names    []string          `json:"names"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/settings"), "/")

	if name != "" {
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		h.delete(w, name)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w)
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) list(w http.ResponseWriter) {
	values, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{Settings: values, Names: config.Names()})
}

// update validates the merged overrides as a whole before storing any.
func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "No settings given")
		return
	}

	current, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	merged := make(map[string]string, len(current)+len(req))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range req {
		merged[k] = v
	}

	cfg := h.base
	if err := cfg.ApplySettings(merged); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for k, v := range req {
		if err := h.store.Settings().Set(k, v); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store settings")
			return
		}
	}
	h.list(w)
}

func (h *SettingsHandler) delete(w http.ResponseWriter, name string) {
	if err := h.store.Settings().Delete(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
)

// CanvasHandler serves the session state, the raster and UI commands.
//
//	GET  /api/state
//	GET  /api/canvas?format=png|bmp|tiff
//	POST /api/canvas/actions
type CanvasHandler struct {
	session *app.Session
}

// NewCanvasHandler creates a CanvasHandler for session.
func NewCanvasHandler(session *app.Session) *CanvasHandler {
	return &CanvasHandler{session: session}
}

// ServeHTTP implements the http.Handler interface.
func (h *CanvasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/state":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, h.session.State())
	case "/api/canvas":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.image(w, r)
	case "/api/canvas/actions":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.action(w, r)
	default:
		http.NotFound(w, r)
	}
}

// image handles GET /api/canvas and writes the committed raster.
func (h *CanvasHandler) image(w http.ResponseWriter, r *http.Request) {
	format := canvas.PNG
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := canvas.ParseFormat(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unsupported format")
			return
		}
		format = f
	}

	var buf bytes.Buffer
	if err := h.session.Encode(&buf, format); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode canvas")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// action handles POST /api/canvas/actions and returns the resulting state.
func (h *CanvasHandler) action(w http.ResponseWriter, r *http.Request) {
	var cmd app.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if cmd.Action == "" {
		writeError(w, http.StatusBadRequest, "Action is required")
		return
	}

	if err := h.session.Apply(cmd); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionClosed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, h.session.State())
}

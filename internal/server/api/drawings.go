package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/store"
)

// DrawingHandler handles HTTP requests for saved drawings.
type DrawingHandler struct {
	store   *store.Store
	session *app.Session
	dir     string
	logger  *slog.Logger
}

// NewDrawingHandler creates a DrawingHandler that writes raster files into
// dir.
func NewDrawingHandler(s *store.Store, session *app.Session, dir string, logger *slog.Logger) *DrawingHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DrawingHandler{store: s, session: session, dir: dir, logger: logger}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *DrawingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/drawings, /api/drawings/{id},
	// /api/drawings/{id}/load and /api/drawings/{id}/image
	path := strings.TrimPrefix(r.URL.Path, "/api/drawings")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.rename(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			methodNotAllowed(w)
		}
	case "load":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.load(w, r, id)
	case "image":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.image(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type createDrawingRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

type renameDrawingRequest struct {
	Name string `json:"name"`
}

type listDrawingsResponse struct {
	Drawings []*store.Drawing `json:"drawings"`
}

// lookup fetches a drawing and writes the error response when it fails.
func (h *DrawingHandler) lookup(w http.ResponseWriter, id string) (*store.Drawing, bool) {
	d, err := h.store.Drawings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Drawing not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get drawing")
		return nil, false
	}
	return d, true
}

// list handles GET /api/drawings and returns all drawings, newest first.
func (h *DrawingHandler) list(w http.ResponseWriter, r *http.Request) {
	drawings, err := h.store.Drawings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list drawings")
		return
	}
	if drawings == nil {
		drawings = []*store.Drawing{}
	}
	writeJSON(w, http.StatusOK, listDrawingsResponse{Drawings: drawings})
}

// get handles GET /api/drawings/{id}.
func (h *DrawingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if d, ok := h.lookup(w, id); ok {
		writeJSON(w, http.StatusOK, d)
	}
}

// create handles POST /api/drawings: the current canvas is saved to a new
// file and catalogued.
func (h *DrawingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createDrawingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	format := canvas.PNG
	if req.Format != "" {
		f, err := canvas.ParseFormat(req.Format)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Unsupported format")
			return
		}
		format = f
	}

	d, err := SaveDrawing(h.store, h.session, h.dir, req.Name, format)
	if err != nil {
		if errors.Is(err, app.ErrSessionClosed) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Warn("save drawing", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to save drawing")
		return
	}

	h.logger.Info("drawing saved", "id", d.ID, "name", d.Name, "format", d.Format)
	writeJSON(w, http.StatusCreated, d)
}

// SaveDrawing writes the session canvas to a new file in dir and catalogues
// it. An empty name is replaced with a timestamp.
func SaveDrawing(st *store.Store, session *app.Session, dir, name string, format canvas.Format) (*store.Drawing, error) {
	now := time.Now()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Drawing " + now.Format("2006-01-02 15:04:05")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drawings directory: %w", err)
	}

	width, height := session.Size()
	d := &store.Drawing{
		ID:        uuid.New().String(),
		Name:      name,
		Format:    string(format),
		Width:     width,
		Height:    height,
		CreatedAt: now,
	}
	d.Path = filepath.Join(dir, fmt.Sprintf("%s.%s", d.ID, format))

	if err := session.Save(d.Path); err != nil {
		return nil, err
	}
	if err := st.Drawings().Create(d); err != nil {
		os.Remove(d.Path)
		return nil, fmt.Errorf("create drawing: %w", err)
	}
	return d, nil
}

// rename handles PUT /api/drawings/{id}.
func (h *DrawingHandler) rename(w http.ResponseWriter, r *http.Request, id string) {
	var req renameDrawingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	if err := h.store.Drawings().Rename(id, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Drawing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to rename drawing")
		return
	}
	h.get(w, r, id)
}

// delete handles DELETE /api/drawings/{id} and removes the record and file.
func (h *DrawingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := h.lookup(w, id)
	if !ok {
		return
	}
	if err := h.store.Drawings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Drawing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete drawing")
		return
	}
	if err := os.Remove(d.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		h.logger.Warn("remove drawing file", "path", d.Path, "err", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// load handles POST /api/drawings/{id}/load and puts the drawing on the
// canvas as one undo step.
func (h *DrawingHandler) load(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := h.lookup(w, id)
	if !ok {
		return
	}

	if err := h.session.Load(d.Path); err != nil {
		switch {
		case errors.Is(err, canvas.ErrSizeMismatch):
			writeError(w, http.StatusConflict, "Drawing size does not match the canvas")
		case errors.Is(err, fs.ErrNotExist):
			writeError(w, http.StatusNotFound, "Drawing file is missing")
		case errors.Is(err, app.ErrSessionClosed):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to load drawing")
		}
		return
	}
	writeJSON(w, http.StatusOK, h.session.State())
}

// image handles GET /api/drawings/{id}/image and serves the raster file.
func (h *DrawingHandler) image(w http.ResponseWriter, r *http.Request, id string) {
	d, ok := h.lookup(w, id)
	if !ok {
		return
	}
	f, err := canvas.ParseFormat(d.Format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unsupported format")
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	http.ServeFile(w, r, d.Path)
}

package api

import (
	"bytes"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
)

func TestCanvasHandler_State(t *testing.T) {
	session, _ := newTestSession(t)
	handler := NewCanvasHandler(session)

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var state struct {
		Tool  string `json:"tool"`
		Color struct {
			Name string `json:"name"`
		} `json:"color"`
		BrushSize float64 `json:"brush_size"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if state.Tool != "pen" {
		t.Errorf("expected tool pen, got %q", state.Tool)
	}
	if state.Color.Name != canvas.Palette[0].Name {
		t.Errorf("expected color %s, got %s", canvas.Palette[0].Name, state.Color.Name)
	}
}

func TestCanvasHandler_Image(t *testing.T) {
	session, cfg := newTestSession(t)
	handler := NewCanvasHandler(session)

	tests := []struct {
		name        string
		query       string
		wantStatus  int
		contentType string
	}{
		{"default png", "", http.StatusOK, "image/png"},
		{"bmp", "?format=bmp", http.StatusOK, "image/bmp"},
		{"tiff", "?format=tif", http.StatusOK, "image/tiff"},
		{"unsupported", "?format=gif", http.StatusBadRequest, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/canvas"+tt.query, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("expected Content-Type %s, got %s", tt.contentType, got)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			img, _, err := image.Decode(rec.Body)
			if err != nil {
				t.Fatalf("failed to decode image: %v", err)
			}
			if b := img.Bounds(); b.Dx() != cfg.Width || b.Dy() != cfg.Height {
				t.Errorf("image size = %v, want %dx%d", b, cfg.Width, cfg.Height)
			}
		})
	}
}

func TestCanvasHandler_Actions(t *testing.T) {
	session, _ := newTestSession(t)
	handler := NewCanvasHandler(session)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/canvas/actions", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("select color", func(t *testing.T) {
		rec := post(`{"action": "color", "index": 2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		if got := session.State().Color.Name; got != canvas.Palette[2].Name {
			t.Errorf("expected color %s, got %s", canvas.Palette[2].Name, got)
		}
	})

	t.Run("switch to eraser", func(t *testing.T) {
		rec := post(`{"action": "eraser"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if got := session.State().Tool; got != canvas.Eraser {
			t.Errorf("expected eraser, got %s", got)
		}
	})

	t.Run("rejects bad requests", func(t *testing.T) {
		for _, body := range []string{
			`not json`,
			`{}`,
			`{"action": "paint"}`,
			`{"action": "color", "index": 42}`,
			`{"action": "brush_size", "size": 0}`,
		} {
			rec := post(body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status %d, got %d", body, http.StatusBadRequest, rec.Code)
			}
		}
	})

	t.Run("only allows POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/canvas/actions", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})

	t.Run("closed session", func(t *testing.T) {
		session.Shutdown()
		rec := post(`{"action": "` + string(app.ActionUndo) + `"}`)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSettingsHandler(t *testing.T) {
	s := newTestStore(t)
	_, cfg := newTestSession(t)
	handler := NewSettingsHandler(s, cfg)

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/settings", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("stores valid overrides", func(t *testing.T) {
		rec := put(`{"brush_size": "12", "undo_depth": "10"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}
		var resp settingsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Settings["brush_size"] != "12" || resp.Settings["undo_depth"] != "10" {
			t.Errorf("unexpected settings %v", resp.Settings)
		}
		if len(resp.Names) == 0 {
			t.Error("expected setting names")
		}
	})

	t.Run("rejects invalid values without storing any", func(t *testing.T) {
		tests := []struct {
			body    string
			wantErr string
		}{
			{`{"brush_size": "big"}`, "brush_size"},
			{`{"no_such_setting": "1"}`, "unknown setting"},
			{`{"brush_min": "50", "brush_max": "10"}`, "brush"},
			{`{}`, "No settings"},
			{`[1, 2]`, "Invalid JSON"},
		}
		for _, tt := range tests {
			rec := put(tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status %d, got %d", tt.body, http.StatusBadRequest, rec.Code)
				continue
			}
			if !strings.Contains(rec.Body.String(), tt.wantErr) {
				t.Errorf("%s: expected error mentioning %q, got %s", tt.body, tt.wantErr, rec.Body.String())
			}
		}

		if v, _ := s.Settings().Get("brush_size"); v != "12" {
			t.Errorf("brush_size changed to %q", v)
		}
		if _, err := s.Settings().Get("brush_min"); err == nil {
			t.Error("brush_min stored despite validation failure")
		}
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/settings/brush_size", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
		}

		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/settings/brush_size", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/settings", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/aircanvas/internal/app"
	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/store"
)

// fakeEvents is an EventSource tests publish into by hand.
type fakeEvents struct {
	mu   sync.Mutex
	subs []chan app.FrameOutput
}

func (f *fakeEvents) Subscribe() (<-chan app.FrameOutput, func()) {
	ch := make(chan app.FrameOutput, 4)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, c := range f.subs {
				if c == ch {
					f.subs = append(f.subs[:i], f.subs[i+1:]...)
					close(ch)
					return
				}
			}
		})
	}
}

func (f *fakeEvents) publish(out app.FrameOutput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.subs {
		c <- out
	}
}

func (f *fakeEvents) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func newTestServer(t *testing.T) (*httptest.Server, *app.Session, *fakeEvents) {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Width, cfg.Height = 160, 120
	cfg.UIBandHeight = 20

	session, err := app.NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(func() { session.Shutdown() })

	st, err := store.New(filepath.Join(cfg.DataDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	events := &fakeEvents{}
	s := New(Config{
		Store:       st,
		Session:     session,
		Events:      events,
		Settings:    cfg,
		DrawingsDir: cfg.DrawingsDir(),
	})
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts, session, events
}

func TestServer_HealthIncludesStats(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string           `json:"status"`
		Stats  app.StatsSnapshot `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
}

func TestServer_DrawingWorkflow(t *testing.T) {
	ts, session, _ := newTestServer(t)

	// change color, save, clear, then load the saved drawing back
	resp, err := http.Post(ts.URL+"/api/canvas/actions", "application/json", strings.NewReader(`{"action": "color", "index": 1}`))
	if err != nil {
		t.Fatalf("action failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/drawings", "application/json", strings.NewReader(`{"name": "workflow"}`))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var d store.Drawing
	json.NewDecoder(resp.Body).Decode(&d)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/canvas/actions", "application/json", strings.NewReader(`{"action": "clear"}`))
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/api/drawings/"+d.ID+"/load", "application/json", nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := session.State().Color.Name; got != canvas.Palette[1].Name {
		t.Errorf("loading a drawing must not change the color, got %s", got)
	}

	resp, err = http.Get(ts.URL + "/api/canvas")
	if err != nil {
		t.Fatalf("canvas failed: %v", err)
	}
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %s", ct)
	}
}

func TestServer_SettingsRoute(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewBufferString(`{"eraser_size": "30"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestServer_Events(t *testing.T) {
	ts, session, events := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for events.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("pushes frame outputs", func(t *testing.T) {
		events.publish(app.FrameOutput{HasCursor: true, BrushSize: 7})

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var out struct {
			HasCursor bool    `json:"has_cursor"`
			BrushSize float64 `json:"brush_size"`
		}
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if !out.HasCursor || out.BrushSize != 7 {
			t.Errorf("unexpected output %+v", out)
		}
	})

	t.Run("applies commands", func(t *testing.T) {
		if err := conn.WriteJSON(app.Command{Action: app.ActionEraser}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		deadline := time.Now().Add(2 * time.Second)
		for session.State().Tool != canvas.Eraser {
			if time.Now().After(deadline) {
				t.Fatal("eraser command was not applied")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})

	t.Run("close unsubscribes", func(t *testing.T) {
		conn.Close()
		deadline := time.Now().Add(2 * time.Second)
		for events.subscribers() != 0 {
			if time.Now().After(deadline) {
				t.Fatal("subscription leaked after close")
			}
			time.Sleep(5 * time.Millisecond)
		}
	})
}

func TestServer_Stream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MJPEG test in short mode (requires OpenCV)")
	}

	ts, _, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("unexpected Content-Type %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.TrimSpace(line) != "--frame" {
		t.Errorf("expected frame boundary, got %q", line)
	}
	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != "Content-Type: image/jpeg" {
		t.Errorf("expected JPEG part, got %q", line)
	}
}

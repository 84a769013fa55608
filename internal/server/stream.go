package server

import (
	"fmt"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/app"
)

const defaultStreamInterval = 66 * time.Millisecond // ~15 FPS

// StreamHandler serves the rendered canvas as MJPEG.
type StreamHandler struct {
	session  *app.Session
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler that renders session every
// interval.
func NewStreamHandler(session *app.Session, interval time.Duration) *StreamHandler {
	return &StreamHandler{session: session, interval: interval}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		buf, err := h.encodeFrame()
		if err != nil {
			// the session is gone; end the stream
			return
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		_, werr := w.Write(buf)
		fmt.Fprintf(w, "\r\n")
		if werr != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

// encodeFrame renders the session and encodes it as JPEG.
func (h *StreamHandler) encodeFrame() ([]byte, error) {
	img, err := h.session.Render()
	if err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/aircanvas/internal/app"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventsHandler streams frame outputs to WebSocket clients as JSON. Clients
// may send commands such as {"action":"undo"} back over the same socket.
type EventsHandler struct {
	source  EventSource
	session *app.Session
	logger  *slog.Logger
}

// NewEventsHandler creates an EventsHandler. session may be nil, in which
// case incoming commands are ignored.
func NewEventsHandler(source EventSource, session *app.Session, logger *slog.Logger) *EventsHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EventsHandler{source: source, session: session, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	outputs, cancel := h.source.Subscribe()
	defer cancel()

	// the reader owns cancellation: a closed socket ends the subscription,
	// which in turn ends the write loop below
	go func() {
		defer cancel()
		for {
			var cmd app.Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			if h.session == nil {
				continue
			}
			if err := h.session.Apply(cmd); err != nil {
				h.logger.Debug("websocket command rejected", "action", cmd.Action, "err", err)
			}
		}
	}()

	for out := range outputs {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}

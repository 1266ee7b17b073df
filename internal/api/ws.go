package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Operator UIs are served from their own origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamAlerts upgrades the connection and pushes every alert event to the
// client until either side goes away.
func (h *Handler) StreamAlerts(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	// The server's read deadline carries over from before the hijack and
	// would kill an idle connection.
	conn.SetReadDeadline(time.Time{})

	events, cancel := h.alerts.Subscribe()

	closed := make(chan struct{})

	// Drain the client side so control frames are processed and we notice
	// when the peer disconnects.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		cancel()
		conn.Close()
	}()

	for {
		select {
		case a, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(a); err != nil {
				h.logger.Debug("websocket client dropped", slog.Any("error", err))
				return
			}
		case <-closed:
			return
		}
	}
}

package viewer

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/auvlib/mapstream/internal/monitoring"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	// The viewer is a local tool; any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewMux returns the HTTP surface for live consumers: a websocket frame
// stream, the latest frame as JSON, and a health check.
func NewMux(pub *Publisher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", serveFrames(pub))
	mux.HandleFunc("/frame", serveLatestFrame(pub))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status": "ok", "service": "mapstream", "timestamp": "%s"}`,
			time.Now().UTC().Format(time.RFC3339))
	})
	return mux
}

// serveFrames upgrades the connection and pushes every broadcast frame to
// the client. The latest frame is sent immediately on connect so a late
// subscriber does not wait a full publish period for its first cloud.
func serveFrames(pub *Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			monitoring.Logf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		clientID := "ws-" + uuid.NewString()
		frames := pub.Subscribe(clientID)
		defer pub.Unsubscribe(clientID)

		if frame := pub.LatestFrame(); frame != nil {
			if err := writeFrame(conn, frame); err != nil {
				return
			}
		}

		// Drain client messages so pings and close frames are processed.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-frames:
				if !ok {
					return
				}
				if err := writeFrame(conn, frame); err != nil {
					monitoring.Logf("websocket client %s dropped: %v", clientID, err)
					return
				}
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame *OutputFrame) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(frame)
}

// serveLatestFrame returns the current frame as a single JSON document.
func serveLatestFrame(pub *Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frame := pub.LatestFrame()
		if frame == nil {
			http.Error(w, "no frame assembled yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(frame); err != nil {
			monitoring.Logf("frame encode error: %v", err)
		}
	}
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventWriteWait  = 5 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = eventPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkEventOrigin,
}

// checkEventOrigin applies the CORS origin list to websocket upgrades. With
// CORS disabled only same-host origins are accepted.
func checkEventOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if !corsEnabled {
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// eventsHandler streams manager events as JSON text frames until the client
// goes away or the server shuts down.
func eventsHandler(es EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the error response.
			return
		}
		defer conn.Close()
		eventSubscribers.Inc()
		defer eventSubscribers.Dec()

		events, cancel := es.Subscribe()
		defer cancel()

		// The read loop only exists to process control frames and notice
		// the client closing.
		gone := make(chan struct{})
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventPongWait))
		})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(eventPingPeriod)
		defer ping.Stop()
		for {
			select {
			case e, ok := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
					return
				}
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-gone:
				return
			case <-serverBaseCtx.Done():
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
		}
	}
}

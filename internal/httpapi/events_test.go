package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"tensord/internal/manager"
	"tensord/pkg/types"
)

func dialEvents(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events"
	return websocket.DefaultDialer.Dial(url, header)
}

func TestEventsStreamsManagerEvents(t *testing.T) {
	m := manager.NewWithConfig(manager.ManagerConfig{Log: zerolog.Nop()})
	defer m.Close()
	srv := httptest.NewServer(NewMux(m))
	defer srv.Close()

	conn, _, err := dialEvents(t, srv, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The subscription is registered after the upgrade; retry until the
	// event arrives.
	deadline := time.Now().Add(2 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	got := make(chan manager.Event, 1)
	go func() {
		var e manager.Event
		if err := conn.ReadJSON(&e); err == nil {
			got <- e
		}
		close(got)
	}()
	for {
		if err := m.TensorSet("k", types.Tensor{DType: "FLOAT", Shape: []int{1}}); err != nil {
			t.Fatalf("TensorSet: %v", err)
		}
		select {
		case e, ok := <-got:
			if !ok {
				t.Fatalf("no event received")
			}
			if e.Name != "tensor_set" || e.Key != "k" {
				t.Fatalf("unexpected event %+v", e)
			}
			return
		case <-time.After(20 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for event")
			}
		}
	}
}

func TestEventsClosesWhenManagerCloses(t *testing.T) {
	m := manager.NewWithConfig(manager.ManagerConfig{Log: zerolog.Nop()})
	srv := httptest.NewServer(NewMux(m))
	defer srv.Close()
	conn, _, err := dialEvents(t, srv, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	// Give the handler time to subscribe before closing.
	time.Sleep(50 * time.Millisecond)
	_ = m.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close, got %v", err)
	}
}

func TestEventsRejectsForeignOrigin(t *testing.T) {
	m := manager.NewWithConfig(manager.ManagerConfig{Log: zerolog.Nop()})
	defer m.Close()
	srv := httptest.NewServer(NewMux(m))
	defer srv.Close()
	h := http.Header{}
	h.Set("Origin", "http://evil.local")
	_, resp, err := dialEvents(t, srv, h)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %+v", resp)
	}
}

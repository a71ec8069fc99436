package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/depotctl/depotctl/internal/domain"
)

var upgrader = websocket.Upgrader{}

// wsServer starts a test websocket server that sends the given payloads
// to every connection and records the username query parameter.
func wsServer(t *testing.T, payloads []string, gotUser *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotUser != nil {
			*gotUser = r.URL.Query().Get("username")
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestClientReceivesEvents(t *testing.T) {
	var gotUser string
	srv := wsServer(t, []string{
		`{"type":"file_uploaded","filename":"report.pdf","directory":"Operation/2024","sender":"alice"}`,
		`{"type":"new_instruction","message":"review the draft","sender":"bob"}`,
	}, &gotUser)
	defer srv.Close()

	var mu sync.Mutex
	var events []domain.Event
	done := make(chan struct{})

	c := New(Config{
		URL:           wsURL(srv),
		Username:      "carol",
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	}, func(e domain.Event) {
		mu.Lock()
		events = append(events, e)
		if len(events) == 2 {
			close(done)
		}
		mu.Unlock()
	}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()

	if gotUser != "carol" {
		t.Errorf("Expected username query carol, got %q", gotUser)
	}
	if events[0].Type != domain.EventFileUploaded || events[0].Filename != "report.pdf" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Type != domain.EventNewInstruction || events[1].Message != "review the draft" {
		t.Errorf("Unexpected second event: %+v", events[1])
	}
}

func TestClientSkipsMalformedEvents(t *testing.T) {
	srv := wsServer(t, []string{
		`not json at all`,
		`{"type":"unknown_kind"}`,
		`{"type":"file_uploaded","filename":"ok.txt"}`,
	}, nil)
	defer srv.Close()

	got := make(chan domain.Event, 3)
	c := New(Config{
		URL:           wsURL(srv),
		Username:      "carol",
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	}, func(e domain.Event) {
		got <- e
	}, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	select {
	case e := <-got:
		if e.Filename != "ok.txt" {
			t.Errorf("Expected only the valid event, got %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for valid event")
	}

	select {
	case e := <-got:
		t.Errorf("Unexpected extra event: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientFallsBackAfterRetries(t *testing.T) {
	// Point at a server that is already closed so every dial fails
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	fallback := make(chan error, 1)
	c := New(Config{
		URL:           url,
		Username:      "carol",
		MaxRetries:    2,
		RetryInterval: 10 * time.Millisecond,
	}, nil, func(lastErr error) {
		fallback <- lastErr
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop()

	select {
	case err := <-fallback:
		if err == nil {
			t.Error("Expected fallback to carry the last error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for fallback")
	}
}

func TestClientRejectsBadURL(t *testing.T) {
	c := New(Config{URL: "http://example.com/ws"}, nil, nil)
	if err := c.Start(context.Background()); err == nil {
		t.Error("Expected error for non-websocket scheme")
	}
}

func TestClientStopIdempotent(t *testing.T) {
	srv := wsServer(t, nil, nil)
	defer srv.Close()

	c := New(Config{
		URL:           wsURL(srv),
		Username:      "carol",
		MaxRetries:    3,
		RetryInterval: 10 * time.Millisecond,
	}, nil, nil)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.Stop()
	c.Stop()
}

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kaushikhazra/nexus-of-mind-sub003/internal/wire"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// echoPing answers every ping with a pong envelope and ignores anything
// else, enough surface to exercise the read-dispatch-write round trip
// without depending on internal/handler.
type echoPing struct{}

func (echoPing) Handle(_ context.Context, env wire.Envelope) (*wire.Envelope, error) {
	if env.Type != wire.TypePing {
		return nil, nil
	}
	resp, err := wire.NewEnvelope(wire.TypePong, env.MessageID, struct{}{})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func newTestServer(t *testing.T, handler MessageHandler) (*httptest.Server, string) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		sess, err := Upgrade(w, r, handler, nopLogger{})
		if err != nil {
			return
		}
		defer sess.Close()
		_ = sess.Serve(r.Context())
	})
	srv := httptest.NewServer(mux)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return srv, wsURL
}

func TestSessionRoundTripsPingPong(t *testing.T) {
	srv, wsURL := newTestServer(t, echoPing{})
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req, err := wire.NewEnvelope(wire.TypePing, nil, struct{}{})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	payload, err := wire.Encode(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write request: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	resp, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Type != wire.TypePong {
		t.Errorf("response type = %q, want %q", resp.Type, wire.TypePong)
	}
}

// silentHandler never answers, so the session must still accept and
// discard the unmatched message without closing the connection.
type silentHandler struct{}

func (silentHandler) Handle(context.Context, wire.Envelope) (*wire.Envelope, error) {
	return nil, nil
}

func TestSessionIgnoresNilResponse(t *testing.T) {
	srv, wsURL := newTestServer(t, silentHandler{})
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req, err := wire.NewEnvelope(wire.TypeHealthCheck, nil, struct{}{})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	payload, err := wire.Encode(req)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write request: %v", err)
	}

	// A follow-up write on the same connection must still succeed after
	// the unanswered message above.
	followUp, err := wire.NewEnvelope(wire.TypePing, nil, struct{}{})
	if err != nil {
		t.Fatalf("build follow-up: %v", err)
	}
	followUpPayload, err := wire.Encode(followUp)
	if err != nil {
		t.Fatalf("encode follow-up: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, followUpPayload); err != nil {
		t.Fatalf("write follow-up: %v", err)
	}
}

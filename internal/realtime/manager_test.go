package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeSessions provides just the token; the realtime manager never writes.
type fakeSessions struct {
	token string
}

func (f *fakeSessions) Token(_ context.Context) string { return f.token }

// wsServer is a minimal push server: it records join frames and lets the
// test push envelopes to the connected client.
type wsServer struct {
	t     *testing.T
	srv   *httptest.Server
	joins chan Envelope
	token chan string

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()

	ws := &wsServer{
		t:     t,
		joins: make(chan Envelope, 8),
		token: make(chan string, 8),
	}

	upgrader := websocket.Upgrader{}
	ws.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.token <- r.URL.Query().Get("token")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		ws.mu.Lock()
		ws.conn = conn
		ws.mu.Unlock()

		for {
			var env Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			if env.Type == joinGroup {
				ws.joins <- env
			}
		}
	}))
	t.Cleanup(ws.srv.Close)
	return ws
}

func (ws *wsServer) url() string {
	return "ws" + strings.TrimPrefix(ws.srv.URL, "http")
}

func (ws *wsServer) push(env Envelope) {
	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()
	if conn == nil {
		ws.t.Fatal("push before a client connected")
	}
	if err := conn.WriteJSON(env); err != nil {
		ws.t.Errorf("push failed: %v", err)
	}
}

func (ws *wsServer) dropClient() {
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func waitJoin(t *testing.T, ws *wsServer) Envelope {
	t.Helper()
	select {
	case env := <-ws.joins:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for join frame")
		return Envelope{}
	}
}

func waitEvent(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("events channel closed while waiting for an event")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func expectNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event delivered: %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
	}
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return b
}

func TestSubscribeJoinsGroupWithToken(t *testing.T) {
	ws := newWSServer(t)
	m := NewManager(ws.url(), &fakeSessions{token: "tok-1"}, nil)
	defer m.Close()

	sub, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if got := <-ws.token; got != "tok-1" {
		t.Errorf("dial token = %q, want tok-1", got)
	}

	join := waitJoin(t, ws)
	if join.GroupID != "group-a" {
		t.Errorf("joined group = %q, want group-a", join.GroupID)
	}

	if m.State() != StateJoined {
		t.Errorf("state = %v, want joined", m.State())
	}
}

func TestEventsAreFilteredByGroup(t *testing.T) {
	ws := newWSServer(t)
	m := NewManager(ws.url(), &fakeSessions{}, nil)
	defer m.Close()

	subA, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("Subscribe A failed: %v", err)
	}
	subB, err := m.Subscribe(context.Background(), "group-b")
	if err != nil {
		t.Fatalf("Subscribe B failed: %v", err)
	}
	waitJoin(t, ws)
	waitJoin(t, ws)

	ws.push(Envelope{
		Type:    EventNewMessage,
		GroupID: "group-a",
		Data:    rawJSON(t, map[string]string{"content": "hi"}),
	})

	ev := waitEvent(t, subA)
	if ev.Type != EventNewMessage || ev.GroupID != "group-a" {
		t.Errorf("event = %+v, want new-message for group-a", ev)
	}

	// The same push must not reach the other group's subscription.
	expectNoEvent(t, subB)
}

func TestSharedConnectionJoinsOncePerGroup(t *testing.T) {
	ws := newWSServer(t)
	m := NewManager(ws.url(), &fakeSessions{}, nil)
	defer m.Close()

	first, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitJoin(t, ws)

	second, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("second Subscribe failed: %v", err)
	}

	select {
	case env := <-ws.joins:
		t.Errorf("unexpected second join frame: %+v", env)
	case <-time.After(200 * time.Millisecond):
	}

	// Both subscriptions receive the group's events.
	ws.push(Envelope{Type: EventNewExpense, GroupID: "group-a", Data: rawJSON(t, map[string]float64{"amount": 10})})
	waitEvent(t, first)
	waitEvent(t, second)

	// Dropping one subscription keeps the transport alive for the other.
	first.Close()
	if m.State() != StateJoined {
		t.Errorf("state after partial close = %v, want joined", m.State())
	}

	second.Close()
	if m.State() != StateDisconnected {
		t.Errorf("state after last close = %v, want disconnected", m.State())
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	ws := newWSServer(t)
	m := NewManager(ws.url(), &fakeSessions{}, nil)
	defer m.Close()

	sub, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	waitJoin(t, ws)

	sub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("events channel still open after Close")
	}
	if m.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", m.State())
	}

	// Close is idempotent.
	sub.Close()
}

func TestReconnectRejoinsGroups(t *testing.T) {
	ws := newWSServer(t)
	m := NewManager(ws.url(), &fakeSessions{}, nil)
	defer m.Close()

	sub, err := m.Subscribe(context.Background(), "group-a")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()
	waitJoin(t, ws)

	// Kill the connection server-side; the manager should redial and
	// rejoin while the subscription remains.
	ws.dropClient()

	join := waitJoin(t, ws)
	if join.GroupID != "group-a" {
		t.Errorf("rejoined group = %q, want group-a", join.GroupID)
	}

	ws.push(Envelope{Type: EventPaymentUpdated, GroupID: "group-a"})
	ev := waitEvent(t, sub)
	if ev.Type != EventPaymentUpdated {
		t.Errorf("event type = %q, want payment-updated", ev.Type)
	}
}

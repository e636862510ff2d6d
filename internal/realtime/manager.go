// Package realtime maintains the websocket subscription to group topics.
//
// One Manager owns one transport connection shared by all subscriptions,
// reference-counted by topic: the first Subscribe dials, the last Close
// tears the connection down. Server-pushed events are delivered only to
// subscriptions whose group matches the event's group, which also guards
// against events for stale rooms arriving across reconnects.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"splitmate/internal/metrics"
)

// TokenSource provides the current auth token for the dial handshake.
// session.Store satisfies it; the manager never writes the session.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Server-pushed event types.
const (
	EventNewMessage     = "new-message"
	EventNewExpense     = "new-expense"
	EventPaymentUpdated = "payment-updated"
)

// joinGroup is the only client-emitted frame. There is no leave frame;
// the server detects departures by disconnect.
const joinGroup = "join-group"

const (
	handshakeTimeout = 10 * time.Second
	initialBackoff   = time.Second
	maxBackoff       = 30 * time.Second
	eventBuffer      = 16
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	GroupID string          `json:"groupId"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Event is one server push delivered to a subscription.
type Event struct {
	Type    string
	GroupID string
	Data    json.RawMessage
}

// State describes the transport lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateJoined
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Manager multiplexes group subscriptions over one websocket connection.
type Manager struct {
	socketURL string
	sessions  TokenSource
	dialer    *websocket.Dialer
	metrics   *metrics.Metrics

	mu    sync.Mutex
	conn  *websocket.Conn
	state State
	subs  map[*Subscription]struct{}
}

// Subscription is one view's claim on a group topic.
type Subscription struct {
	m       *Manager
	groupID string
	events  chan Event
}

// Events is the stream of pushes for this subscription's group. The
// channel closes on Close (or Manager.Close); nothing is delivered after
// that.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// GroupID is the topic this subscription joined.
func (s *Subscription) GroupID() string {
	return s.groupID
}

// Close releases the subscription. Closing the last subscription closes
// the underlying transport. Safe to call more than once.
func (s *Subscription) Close() {
	s.m.unsubscribe(s)
}

// NewManager builds a manager for the given websocket endpoint. Nothing
// connects until the first Subscribe.
func NewManager(socketURL string, sessions TokenSource, m *metrics.Metrics) *Manager {
	return &Manager{
		socketURL: socketURL,
		sessions:  sessions,
		dialer:    &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		metrics:   m,
		subs:      make(map[*Subscription]struct{}),
	}
}

// State reports the current transport state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe joins the given group topic, dialing the transport if this is
// the first active subscription. Events arrive on the returned
// subscription's channel until it is closed.
func (m *Manager) Subscribe(ctx context.Context, groupID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		if err := m.connectLocked(ctx); err != nil {
			m.state = StateDisconnected
			return nil, err
		}
	}

	sub := &Subscription{
		m:       m,
		groupID: groupID,
		events:  make(chan Event, eventBuffer),
	}

	if !m.joinedLocked(groupID) {
		if err := m.conn.WriteJSON(Envelope{Type: joinGroup, GroupID: groupID}); err != nil {
			return nil, fmt.Errorf("failed to join group %s: %w", groupID, err)
		}
	}

	m.subs[sub] = struct{}{}
	return sub, nil
}

// Close tears down the transport and all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sub := range m.subs {
		delete(m.subs, sub)
		close(sub.events)
	}
	m.dropConnLocked()
}

// connectLocked dials and starts the read loop. Caller holds m.mu.
func (m *Manager) connectLocked(ctx context.Context) error {
	m.state = StateConnecting

	u, err := url.Parse(m.socketURL)
	if err != nil {
		return fmt.Errorf("invalid socket URL %q: %w", m.socketURL, err)
	}
	if token := m.sessions.Token(ctx); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := m.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", u.Host, err)
	}

	m.conn = conn
	m.state = StateJoined
	go m.readLoop(conn)

	slog.Debug("realtime connected", "host", u.Host)
	return nil
}

func (m *Manager) joinedLocked(groupID string) bool {
	for sub := range m.subs {
		if sub.groupID == groupID {
			return true
		}
	}
	return false
}

func (m *Manager) groupsLocked() []string {
	seen := make(map[string]bool)
	var groups []string
	for sub := range m.subs {
		if !seen[sub.groupID] {
			seen[sub.groupID] = true
			groups = append(groups, sub.groupID)
		}
	}
	return groups
}

func (m *Manager) dropConnLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.state = StateDisconnected
}

// readLoop delivers frames until the connection dies, then hands off to
// the reconnect path if subscriptions remain.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			m.handleDisconnect(conn, err)
			return
		}
		m.dispatch(env)
	}
}

func (m *Manager) dispatch(env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delivered := false
	for sub := range m.subs {
		if sub.groupID != env.GroupID {
			continue
		}
		select {
		case sub.events <- Event{Type: env.Type, GroupID: env.GroupID, Data: env.Data}:
			delivered = true
		default:
			// Slow consumer; dropping beats blocking the read loop.
			slog.Warn("realtime event dropped", "type", env.Type, "group_id", env.GroupID)
		}
	}

	if delivered && m.metrics != nil {
		m.metrics.EventsTotal.WithLabelValues(env.Type).Inc()
	}
}

func (m *Manager) handleDisconnect(conn *websocket.Conn, err error) {
	m.mu.Lock()
	if conn != m.conn {
		// Deliberate teardown or an already-replaced connection.
		m.mu.Unlock()
		return
	}
	m.dropConnLocked()
	remaining := len(m.subs)
	m.mu.Unlock()

	if remaining == 0 {
		return
	}

	slog.Warn("realtime connection lost", "error", err, "subscriptions", remaining)
	go m.reconnect()
}

// reconnect redials with bounded exponential backoff and rejoins every
// subscribed group, until it succeeds or no subscriptions remain.
func (m *Manager) reconnect() {
	backoff := initialBackoff
	for {
		time.Sleep(backoff)

		m.mu.Lock()
		if len(m.subs) == 0 || m.conn != nil {
			m.mu.Unlock()
			return
		}

		if m.metrics != nil {
			m.metrics.Reconnects.Inc()
		}

		if err := m.connectLocked(context.Background()); err != nil {
			m.state = StateDisconnected
			m.mu.Unlock()
			slog.Warn("realtime reconnect failed", "error", err, "retry_in", backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		for _, groupID := range m.groupsLocked() {
			if err := m.conn.WriteJSON(Envelope{Type: joinGroup, GroupID: groupID}); err != nil {
				slog.Warn("failed to rejoin group", "group_id", groupID, "error", err)
			}
		}
		m.mu.Unlock()
		return
	}
}

// unsubscribe removes a subscription; the last one out closes the
// transport.
func (m *Manager) unsubscribe(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subs[sub]; !ok {
		return
	}
	delete(m.subs, sub)
	close(sub.events)

	if len(m.subs) == 0 {
		m.dropConnLocked()
	}
}

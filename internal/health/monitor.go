// Package health tracks backend reachability for the connection banner.
package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"splitmate/internal/api"
)

// Status is the connectivity indicator state.
type Status string

const (
	// StatusChecking is the initial state before the first probe lands.
	StatusChecking Status = "checking"

	// StatusOnline means the last probe answered 2xx.
	StatusOnline Status = "online"

	// StatusDegraded means the backend answered but not with 2xx.
	StatusDegraded Status = "degraded"

	// StatusOffline means the probe failed at the transport level.
	StatusOffline Status = "offline"
)

// DefaultInterval is how often the backend is probed.
const DefaultInterval = 30 * time.Second

// Monitor polls the backend liveness endpoint. It informs the connection
// indicator only; nothing correctness-critical depends on it.
type Monitor struct {
	client   *api.Client
	interval time.Duration
	onChange func(Status)

	mu     sync.Mutex
	status Status
}

// NewMonitor builds a monitor over the given client. onChange, when set,
// fires on every status transition (never for repeats).
func NewMonitor(client *api.Client, interval time.Duration, onChange func(Status)) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		client:   client,
		interval: interval,
		onChange: onChange,
		status:   StatusChecking,
	}
}

// Status returns the current indicator state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check performs one probe and returns the resulting status. The probe
// itself is bounded by the client's health timeout.
func (m *Monitor) Check(ctx context.Context) Status {
	status := StatusOnline
	if err := m.client.Health(ctx); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			status = StatusDegraded
		} else {
			status = StatusOffline
		}
	}
	m.set(status)
	return status
}

func (m *Monitor) set(status Status) {
	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.mu.Unlock()

	if changed {
		slog.Info("backend status changed", "status", status)
		if m.onChange != nil {
			m.onChange(status)
		}
	}
}

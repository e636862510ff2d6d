package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"splitmate/internal/api"
	"splitmate/internal/models"
	"splitmate/internal/realtime"
)

// Watch follows a group live: chat messages and expense activity stream
// to the terminal until ctx is cancelled. While watching, backend health
// is polled and metrics are served on the configured address.
func (a *App) Watch(ctx context.Context, groupID string) error {
	if groupID == "" {
		return errors.New("a group ID is required")
	}
	if a.sessions.Token(ctx) == "" {
		return errors.New("watching requires a session; log in first")
	}

	sub, err := a.realtime.Subscribe(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to subscribe to group: %w", err)
	}
	defer sub.Close()

	go a.monitor.Run(ctx)
	go a.serveMetrics(ctx)

	fmt.Fprintf(a.out, "Watching group %s (ctrl-c to stop)\n", groupID)

	// Expense and payment pushes carry no balance data, so each triggers
	// a background refresh. Only the newest refresh is allowed to render.
	var seq api.Sequencer

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return errors.New("realtime subscription closed")
			}
			a.renderEvent(ctx, event, &seq)
		}
	}
}

func (a *App) renderEvent(ctx context.Context, event realtime.Event, seq *api.Sequencer) {
	switch event.Type {
	case realtime.EventNewMessage:
		var msg models.ChatMessage
		if err := json.Unmarshal(event.Data, &msg); err != nil {
			slog.Warn("undecodable chat message", "error", err)
			return
		}
		fmt.Fprintf(a.out, "[%s] %s: %s\n",
			msg.Timestamp.Format("15:04"), msg.Sender.Username, msg.Content)

	case realtime.EventNewExpense, realtime.EventPaymentUpdated:
		fmt.Fprintf(a.out, "Group activity: %s\n", event.Type)
		go a.refreshBalance(ctx, seq, seq.Next())
	}
}

// refreshBalance refetches the balance after a push. A refresh that lost
// the race to a newer one is dropped so stale numbers never overwrite
// fresh ones.
func (a *App) refreshBalance(ctx context.Context, seq *api.Sequencer, token uint64) {
	balance, err := a.client.Balance(ctx)
	if err != nil {
		slog.Warn("failed to refresh balance", "error", err)
		return
	}
	if !seq.Latest(token) {
		return
	}
	fmt.Fprintf(a.out, "Balance now: owe %.2f, owed %.2f\n",
		balance.TotalOwes, balance.TotalOwed)
}

// serveMetrics exposes the Prometheus registry for the duration of the
// watch. Listen failures are logged, not fatal; watching works without
// metrics.
func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())

	server := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	slog.Info("serving metrics", "addr", a.cfg.MetricsAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Warn("metrics server stopped", "error", err)
	}
}

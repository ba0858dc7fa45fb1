package realtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// notifyChannel matches the channel the notify_table_change trigger
// publishes on.
const notifyChannel = "table_changes"

const reconnectDelay = 5 * time.Second

// Listener holds one LISTEN connection to Postgres and forwards each
// notification to the hub. It reconnects on failure until the context
// is cancelled.
type Listener struct {
	dsn string
	hub *Hub
	log *slog.Logger
}

// NewListener creates a listener for the given connection string.
func NewListener(dsn string, hub *Hub, log *slog.Logger) *Listener {
	return &Listener{dsn: dsn, hub: hub, log: log}
}

// Run blocks, listening and forwarding, until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log.Warn("realtime listener disconnected, retrying", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	l.log.Info("realtime listener connected", "channel", notifyChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		l.hub.Broadcast(Event{Table: notification.Payload})
	}
}

// Package cache provides the read-through mirror of products and receipts and
// the redis-backed cart session store.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"warungpos/pkg/logger"
)

// NotificationHandler receives a PostgreSQL NOTIFY event.
type NotificationHandler func(channel, payload string)

// PGListener holds a dedicated connection in LISTEN mode and forwards
// notifications. It reconnects after connection failures.
type PGListener struct {
	pool     *pgxpool.Pool
	channels []string
	retry    time.Duration
}

// NewPGListener creates a listener for channels.
func NewPGListener(pool *pgxpool.Pool, channels ...string) *PGListener {
	return &PGListener{pool: pool, channels: channels, retry: time.Second}
}

// Run blocks until ctx is done.
func (l *PGListener) Run(ctx context.Context, handle NotificationHandler) {
	for ctx.Err() == nil {
		conn, err := l.pool.Acquire(ctx)
		if err != nil {
			logger.Error(ctx, "failed to acquire connection for LISTEN", "error", err)
			l.pause(ctx)
			continue
		}

		if _, err := conn.Exec(ctx, l.listenSQL()); err != nil {
			logger.Error(ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.pause(ctx)
			continue
		}
		logger.Info(ctx, "listening for notifications", "channels", l.channels)

		l.wait(ctx, conn.Conn(), handle)
		// The session still has LISTEN registered; do not hand it back.
		conn.Hijack().Close(context.Background())
	}
}

func (l *PGListener) listenSQL() string {
	var b strings.Builder
	for _, ch := range l.channels {
		b.WriteString("LISTEN ")
		b.WriteString(pgx.Identifier{ch}.Sanitize())
		b.WriteString(";")
	}
	return b.String()
}

func (l *PGListener) wait(ctx context.Context, conn *pgx.Conn, handle NotificationHandler) {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn(ctx, "notification wait failed, reconnecting", "error", err)
			}
			return
		}
		logger.Debug(ctx, "received notification", "channel", n.Channel, "payload", n.Payload)
		handle(n.Channel, n.Payload)
	}
}

func (l *PGListener) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(l.retry):
	}
}

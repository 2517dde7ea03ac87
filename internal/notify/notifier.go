// Package notify delivers short text messages to chat users.
package notify

import (
	"context"

	"subscription-shop/internal/monitoring"

	"go.uber.org/zap"
)

// Notifier sends a message to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Dispatcher fans messages out to users and operators. Delivery is best
// effort: failures are logged and counted, never returned.
type Dispatcher struct {
	notifier  Notifier
	operators []int64
	log       *zap.Logger
}

func NewDispatcher(notifier Notifier, operators []int64, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		notifier:  notifier,
		operators: operators,
		log:       log.With(zap.String("component", "notify")),
	}
}

// User sends text to a single chat
func (d *Dispatcher) User(ctx context.Context, chatID int64, text string) {
	if d == nil || d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, chatID, text); err != nil {
		monitoring.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Warn("notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	monitoring.NotificationsTotal.WithLabelValues("sent").Inc()
}

// Operators sends text to every configured operator
func (d *Dispatcher) Operators(ctx context.Context, text string) {
	if d == nil {
		return
	}
	for _, id := range d.operators {
		d.User(ctx, id, text)
	}
}

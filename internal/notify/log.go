package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes messages to the log. Used when no bot token is set.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, chatID int64, text string) error {
	l.log.Info("notification", zap.Int64("chat_id", chatID), zap.String("text", text))
	return nil
}

package notifier

import (
	"context"

	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Notifier = (*Log)(nil)

// Log only logs messages. The body is logged at debug level since it carries the token link.
type Log struct {
	logger *logger.Logger
}

func NewLog(logger *logger.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg model.Message) error {
	l.logger.Info("Notifier: message prepared",
		"id", msg.ID,
		"kind", msg.Kind,
		"recipient", msg.Recipient,
		"subject", msg.Subject)
	l.logger.Debug("Notifier: message body", "id", msg.ID, "body", msg.Body)
	return nil
}

package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/models"
)

// LogNotifier writes notifications to the service log. It is used when no
// webhook is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, n models.Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger.Info("notification",
		zap.String("type", n.Type),
		zap.String("reference", n.Notice.Reference),
		zap.String("phone", n.Notice.Phone),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	)
	return nil
}

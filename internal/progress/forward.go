package progress

import (
	"context"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"go.uber.org/zap"
)

// Forward returns a handler relaying every event to pub. Each publish is
// bounded by timeout; failures are logged and the event is dropped.
func Forward(pub port.StatusPublisher, timeout time.Duration, logger *zap.Logger) Handler {
	return func(ev entity.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := pub.PublishStatus(ctx, entity.NewStatusMessage(ev)); err != nil {
			logger.Warn("failed to forward status",
				zap.String("session_id", ev.SessionID),
				zap.String("type", string(ev.Type)),
				zap.Error(err),
			)
		}
	}
}

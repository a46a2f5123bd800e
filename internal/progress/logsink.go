package progress

import (
	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"go.uber.org/zap"
)

// LogSink returns a handler writing every event to logger. Progress updates
// go to debug, terminal events to info or warn.
func LogSink(logger *zap.Logger) Handler {
	return func(ev entity.Event) {
		log := logger.With(zap.String("session_id", ev.SessionID))
		switch ev.Type {
		case entity.EventProgress:
			log.Debug("progress",
				zap.Int("step", ev.Progress.Step),
				zap.Int("percent", ev.Progress.Percent),
				zap.String("message", ev.Progress.Message),
			)
		case entity.EventComplete:
			log.Info("session complete",
				zap.String("namespace", ev.Completion.Namespace),
				zap.String("download_url", ev.Completion.DownloadURL),
			)
		case entity.EventError:
			log.Warn("session failed", zap.String("message", ev.Failure.Message))
		}
	}
}

package port

import (
	"context"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
)

// ProgressPublisher broadcasts session events. Publish never blocks.
type ProgressPublisher interface {
	Publish(event entity.Event)
}

// StatusPublisher forwards session events to downstream consumers.
type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg entity.StatusMessage) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}

// VideoStorage stages source videos referenced by queued requests.
type VideoStorage interface {
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
}

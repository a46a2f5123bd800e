package port

import "context"

type ReadyNotifier interface {
	NotifyReady(ctx context.Context, email string, textureName string, downloadURL string) error
}

package port

import (
	"context"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
)

// Source is a resolved local video with an optional separate audio file.
// Remote marks files downloaded into the scratch directory.
type Source struct {
	VideoPath string
	AudioPath string
	Remote    bool
}

type SourceAcquirer interface {
	Acquire(ctx context.Context, namespace string, origin entity.Origin) (*Source, error)
}

// FeatureFlags gates each origin.
type FeatureFlags interface {
	UploadEnabled() bool
	YouTubeEnabled() bool
	TikTokEnabled() bool
}

package port

import (
	"context"
	"errors"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindBySessionID(ctx context.Context, sessionID string) (*entity.Job, error)
}

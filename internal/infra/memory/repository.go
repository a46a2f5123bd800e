// Package memory holds in-process adapters used when no database is
// configured.
package memory

import (
	"context"
	"sync"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
)

// JobRepository keeps jobs in a map keyed by session id. Stored jobs are
// copies, so callers cannot mutate them in place.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]entity.Job
}

func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[string]entity.Job)}
}

func (r *JobRepository) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.SessionID] = *job
	return nil
}

func (r *JobRepository) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.SessionID]; !ok {
		return port.ErrJobNotFound
	}
	r.jobs[job.SessionID] = *job
	return nil
}

func (r *JobRepository) FindBySessionID(_ context.Context, sessionID string) (*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[sessionID]
	if !ok {
		return nil, port.ErrJobNotFound
	}
	return &job, nil
}

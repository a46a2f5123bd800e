package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO generation_jobs (
			id, session_id, namespace, texture_name, origin, status,
			frame_rate, image_quality, frame_count, archive_key,
			download_url, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.SessionID, job.Namespace, job.TextureName, string(job.Origin), string(job.Status),
		job.FrameRate, job.ImageQuality, job.FrameCount, job.ArchiveKey,
		job.DownloadURL, job.ErrorMessage, job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE generation_jobs SET
			status=$2, frame_count=$3, archive_key=$4, download_url=$5,
			error_message=$6, updated_at=$7, completed_at=$8
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.FrameCount, job.ArchiveKey, job.DownloadURL,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: %w", job.ID, port.ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindBySessionID(ctx context.Context, sessionID string) (*entity.Job, error) {
	query := `
		SELECT id, session_id, namespace, texture_name, origin, status,
			frame_rate, image_quality, frame_count, archive_key,
			download_url, error_message, created_at, updated_at, completed_at
		FROM generation_jobs WHERE session_id=$1`

	job := &entity.Job{}
	var origin, status string
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&job.ID, &job.SessionID, &job.Namespace, &job.TextureName, &origin, &status,
		&job.FrameRate, &job.ImageQuality, &job.FrameCount, &job.ArchiveKey,
		&job.DownloadURL, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by session: %w", err)
	}
	job.Origin = entity.OriginKind(origin)
	job.Status = entity.JobStatus(status)
	return job, nil
}

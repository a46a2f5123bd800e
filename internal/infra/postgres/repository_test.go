package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/domain/entity"
	"github.com/heenao9k/betmc-ui-generator/internal/domain/port"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestJobRepositoryAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("jobs"),
		tcpostgres.WithUsername("job_user"),
		tcpostgres.WithPassword("job_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer container.Terminate(ctx)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool), "migrations are idempotent")

	repo := NewJobRepository(pool)

	session := &entity.Session{SessionID: "sess0000000000000000000000000001", Namespace: "ns00000000000000000000000000001"}
	job := entity.NewJob(session, &entity.GenerationRequest{
		Origin:       entity.Origin{Kind: entity.OriginYouTube},
		FrameRate:    30,
		ImageQuality: 80,
		DisplayName:  "Sunset",
	})
	require.NoError(t, repo.Create(ctx, job))

	job.MarkProcessing()
	require.NoError(t, repo.Update(ctx, job))

	job.MarkCompleted("ns.zip", "/zips/ns.zip", 90)
	require.NoError(t, repo.Update(ctx, job))

	got, err := repo.FindBySessionID(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, entity.JobStatusCompleted, got.Status)
	assert.Equal(t, entity.OriginYouTube, got.Origin)
	assert.Equal(t, 90, got.FrameCount)
	assert.Equal(t, "/zips/ns.zip", got.DownloadURL)
	assert.Equal(t, "Sunset", got.TextureName)
	require.NotNil(t, got.CompletedAt)

	_, err = repo.FindBySessionID(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrJobNotFound)

	ghost := entity.NewJob(&entity.Session{SessionID: "ghost"}, &entity.GenerationRequest{})
	assert.ErrorIs(t, repo.Update(ctx, ghost), port.ErrJobNotFound)
}

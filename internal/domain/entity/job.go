package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Job is the persisted record of one generation run.
type Job struct {
	ID           uuid.UUID
	SessionID    string
	Namespace    string
	TextureName  string
	Origin       OriginKind
	Status       JobStatus
	FrameRate    float64
	ImageQuality int
	FrameCount   int
	ArchiveKey   string
	DownloadURL  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewJob(s *Session, req *GenerationRequest) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:           uuid.New(),
		SessionID:    s.SessionID,
		Namespace:    s.Namespace,
		TextureName:  req.DisplayName,
		Origin:       req.Origin.Kind,
		Status:       JobStatusPending,
		FrameRate:    req.FrameRate,
		ImageQuality: req.ImageQuality,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(archiveKey, downloadURL string, frameCount int) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ArchiveKey = archiveKey
	j.DownloadURL = downloadURL
	j.FrameCount = frameCount
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *Job) MarkFailed(errMsg string, frameCount int) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.FrameCount = frameCount
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

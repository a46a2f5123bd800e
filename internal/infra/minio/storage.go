package minio

import (
	"context"
	"fmt"
	"net/url"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Storage struct {
	client       *miniogo.Client
	uploadBucket string
	zipBucket    string
	linkTTL      time.Duration
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UploadBucket string
	ZipBucket    string
	// LinkTTL is the lifetime of presigned archive links.
	LinkTTL time.Duration
}

func NewStorage(cfg StorageConfig) (*Storage, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 24 * time.Hour
	}

	return &Storage{
		client:       client,
		uploadBucket: cfg.UploadBucket,
		zipBucket:    cfg.ZipBucket,
		linkTTL:      cfg.LinkTTL,
	}, nil
}

func (s *Storage) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.uploadBucket, s.zipBucket} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// DownloadVideo fetches a source video that a producer staged in the upload
// bucket before queueing its generation request.
func (s *Storage) DownloadVideo(ctx context.Context, objectKey string, destPath string) error {
	if err := s.client.FGetObject(ctx, s.uploadBucket, objectKey, destPath, miniogo.GetObjectOptions{}); err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	return nil
}

// PublishArchive uploads the archive and returns a presigned download link.
func (s *Storage) PublishArchive(ctx context.Context, objectKey string, localPath string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.zipBucket, objectKey, localPath, miniogo.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("upload zip: %w", err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", objectKey))
	link, err := s.client.PresignedGetObject(ctx, s.zipBucket, objectKey, s.linkTTL, params)
	if err != nil {
		return "", fmt.Errorf("presign zip: %w", err)
	}
	return link.String(), nil
}

// RemoveArchive deletes a published archive, used by the retention sweep.
func (s *Storage) RemoveArchive(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.zipBucket, objectKey, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove zip: %w", err)
	}
	return nil
}

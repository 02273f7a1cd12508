package media

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/stories-viewer/internal/config"
)

// Service resolves story media and audio keys into short-lived presigned
// URLs for playback. A story whose key cannot be resolved simply renders as
// a background-color card; resolution failure is never fatal to the viewer.
type Service struct {
	client     *minio.Client
	bucketName string
	urlExpiry  time.Duration
}

// ResolvedMedia is a playback URL for one object key.
type ResolvedMedia struct {
	ObjectKey string `json:"object_key"`
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewService creates a new media service instance
func NewService(cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := &Service{
		client:     client,
		bucketName: cfg.MinIO.BucketName,
		urlExpiry:  cfg.MinIO.URLExpiry,
	}

	if err := service.ensureBucket(context.Background()); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ResolveURL returns a presigned GET URL for the given object key.
func (s *Service) ResolveURL(ctx context.Context, objectKey string) (*ResolvedMedia, error) {
	if objectKey == "" {
		return nil, fmt.Errorf("object key is required")
	}

	// Confirm the object exists so a dangling key surfaces as a clean
	// not-found instead of a dead URL on the client.
	_, err := s.client.StatObject(ctx, s.bucketName, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("media object not found: %w", err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, s.urlExpiry, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("failed to presign media url: %w", err)
	}

	return &ResolvedMedia{
		ObjectKey: objectKey,
		URL:       presigned.String(),
		ExpiresAt: time.Now().Add(s.urlExpiry).Unix(),
	}, nil
}

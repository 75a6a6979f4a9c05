// Package objectstore mirrors output artifacts to an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"catmirror/internal/config"
	"catmirror/internal/logger"
)

const artifactContentType = "text/csv"

// Uploader pushes processed CSV artifacts to object storage. It runs after
// the checkpoint commit; upload failures are reported by the caller but
// never affect watermarks, since the local artifact is the system of record.
type Uploader struct {
	client *minio.Client
	log    *logger.Logger
	bucket string
	region string
}

// NewUploader creates an uploader from the upload section of the config.
// No network traffic happens until EnsureBucket or UploadFile.
func NewUploader(cfg config.UploadConfig, log *logger.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &Uploader{
		client: client,
		log:    log,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// EnsureBucket creates the target bucket if it does not exist yet.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", u.bucket, err)
	}

	if exists {
		return nil
	}

	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
	}

	u.log.Info("created artifact bucket", "bucket", u.bucket)

	return nil
}

// UploadFile uploads one local artifact under its base name and returns the
// object key.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	key := ObjectKey(path)

	_, err := u.client.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
		ContentType: artifactContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return key, nil
}

// ObjectKey derives the bucket key for a local artifact path.
func ObjectKey(path string) string {
	return filepath.Base(path)
}

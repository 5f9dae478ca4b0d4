package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/user/clipcutter/batch"
	"github.com/user/clipcutter/clip"
)

// DefaultBucket stores uploaded clips when no bucket is configured.
const DefaultBucket = "clips"

const uploadTimeout = 5 * time.Minute

// objectStore is the part of *minio.Client the uploader needs.
type objectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioConfig describes an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// MinioUploader is a batch.Notifier that uploads every completed clip to
// <bucket>/<runID>/<file>.
type MinioUploader struct {
	store  objectStore
	bucket string

	mu       sync.Mutex
	ensured  bool
	uploaded []string
}

// NewMinioUploader connects a client for cfg. The bucket is created lazily
// on the first upload.
func NewMinioUploader(cfg MinioConfig) (*MinioUploader, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio: no endpoint configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}
	return newMinioUploader(client, cfg.Bucket), nil
}

func newMinioUploader(store objectStore, bucket string) *MinioUploader {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &MinioUploader{store: store, bucket: bucket}
}

// Notify implements batch.Notifier. Only completed jobs are uploaded.
func (u *MinioUploader) Notify(ctx context.Context, ev batch.Event) error {
	if ev.Type != batch.EventJobFinished || ev.Job == nil || ev.Job.Status != clip.StatusCompleted {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	if err := u.ensureBucket(ctx); err != nil {
		return err
	}

	file := ev.Job.Request.OutputPath
	name := ObjectName(ev.RunID, file)
	if _, err := u.store.FPutObject(ctx, u.bucket, name, file, minio.PutObjectOptions{
		ContentType: "video/mp4",
	}); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	u.mu.Lock()
	u.uploaded = append(u.uploaded, name)
	u.mu.Unlock()
	return nil
}

// Uploaded returns the object names written so far.
func (u *MinioUploader) Uploaded() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.uploaded...)
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ensured {
		return nil
	}

	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", u.bucket, err)
	}
	if !exists {
		if err := u.store.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", u.bucket, err)
		}
	}
	u.ensured = true
	return nil
}

// ObjectName is the key a clip is stored under: <runID>/<file name>.
func ObjectName(runID, file string) string {
	return path.Join(runID, filepath.Base(file))
}

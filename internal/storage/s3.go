package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// S3Options holds the connection settings for an S3-compatible bucket
// (AWS, R2, MinIO).
type S3Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
}

// S3 implements Source on an S3-compatible bucket.
type S3 struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewS3 creates a client for the bucket. It does not create the bucket; a
// failed existence check is logged and the client is returned anyway so a
// temporarily unreachable store does not block startup.
func NewS3(ctx context.Context, opts S3Options, logger *slog.Logger) (*S3, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init s3 client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	switch {
	case err != nil:
		logger.Warn("storage: bucket check failed", slog.String("bucket", opts.Bucket), slog.String("error", err.Error()))
	case !exists:
		logger.Warn("storage: bucket does not exist", slog.String("bucket", opts.Bucket))
	}

	return &S3{client: client, bucket: opts.Bucket, logger: logger}, nil
}

// List returns every object under prefix.
func (s *S3) List(ctx context.Context, prefix string) ([]models.ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out []models.ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("storage: list %q: %w", prefix, obj.Err)
		}
		out = append(out, models.ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// Get downloads the object stored under key.
func (s *S3) Get(ctx context.Context, key string) (*models.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapErr("get", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrapErr("get", key, err)
	}
	return &models.Object{Key: key, Data: data}, nil
}

// Put uploads data under key.
func (s *S3) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = ContentType(key)
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return s.wrapErr("put", key, err)
	}
	s.logger.Debug("storage: object stored",
		slog.String("key", key), slog.Int64("size", info.Size), slog.String("etag", info.ETag))
	return nil
}

func (s *S3) wrapErr(op, key string, err error) error {
	if isNoSuchKey(err) {
		return fmt.Errorf("storage: %s %s: %w", op, key, apperr.ErrNotFound)
	}
	return fmt.Errorf("storage: %s %s: %w", op, key, err)
}

func isNoSuchKey(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return true
	}
	return false
}

var _ Source = (*S3)(nil)

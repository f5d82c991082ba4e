package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type s3Store struct {
	client   *minio.Client
	bucket   string
	strategy retry.Strategy
}

// Session blobs are transient, so failed puts are retried briefly
// instead of surfacing straight to the user action.
var putStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    time.Second,
	Backoff:  2.0,
}

func NewS3Store(cfg *config.BlobStoreConfig) (Store, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}

	creds := credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, "")
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize s3 client: %w", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check s3 bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			zlog.Logger.Warn().Err(err).Str("bucket", cfg.S3Bucket).Msg("unable to create bucket, ensure it exists and credentials are correct")
		} else {
			zlog.Logger.Info().Str("bucket", cfg.S3Bucket).Msg("created s3 bucket")
		}
	}

	return &s3Store{
		client:   client,
		bucket:   cfg.S3Bucket,
		strategy: putStrategy,
	}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty blob for key %s", key)
	}

	err := retry.Do(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
		if err != nil {
			zlog.Logger.Warn().Err(err).Str("key", key).Msg("s3 put failed, retrying")
		}
		return err
	}, s.strategy)
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	zlog.Logger.Info().Str("key", key).Int("bytes", len(data)).Msg("blob saved to s3")
	return nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("key", key).Msg("failed to get object from s3")
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		zlog.Logger.Error().Err(err).Str("key", key).Msg("failed to delete object from s3")
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	zlog.Logger.Info().Str("key", key).Msg("blob deleted from s3")
	return nil
}

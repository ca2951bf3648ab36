package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"
	"github.com/rs/zerolog"
)

// MinioStore implements Store against any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
	log    zerolog.Logger
}

// Options configures the MinIO connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinio connects to the endpoint and verifies the bucket exists.
func NewMinio(ctx context.Context, opts Options, log zerolog.Logger) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect artifact store: %w", err)
	}
	ok, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("probe bucket %s: %w", opts.Bucket, err)
	}
	if !ok {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}
	return &MinioStore{client: client, bucket: opts.Bucket, log: log}, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = obj.Close() }()
	return io.ReadAll(obj)
}

func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (s *MinioStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinioStore) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, ttl)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Listen subscribes to object-created bucket notifications under prefix.
func (s *MinioStore) Listen(ctx context.Context, prefix string) (<-chan ObjectEvent, error) {
	out := make(chan ObjectEvent)
	infos := s.client.ListenBucketNotification(ctx, s.bucket, prefix, "", []string{
		string(notification.ObjectCreatedAll),
	})
	go func() {
		defer close(out)
		for info := range infos {
			if info.Err != nil {
				s.log.Error().Stack().Err(info.Err).Str("prefix", prefix).Msg("bucket notification stream error")
				continue
			}
			for _, rec := range info.Records {
				key, err := url.QueryUnescape(rec.S3.Object.Key)
				if err != nil {
					key = rec.S3.Object.Key
				}
				select {
				case out <- ObjectEvent{Key: key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// HealthPing implements health.HealthPinger.
func (s *MinioStore) HealthPing(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucket)
	}
	return nil
}

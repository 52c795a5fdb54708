package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/service"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Profile  string
	Endpoint string
	Retry    service.RetryOptions
}

// S3Store keeps objects in one S3 bucket. Every call is retried with exponential
// backoff; missing keys map to common.ErrNotFound and are not retried.
type S3Store struct {
	client S3API
	bucket string
	retry  service.RetryOptions
}

// NewS3Store loads AWS credentials from the default chain (or the named profile) and
// connects to the bucket.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: storage.bucket is required for the s3 backend", common.ErrMissingConfig)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Retry), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket string, retry service.RetryOptions) *S3Store {
	return &S3Store{client: client, bucket: bucket, retry: retry}
}

// Bucket returns the bucket name.
func (s *S3Store) Bucket() string {
	return s.bucket
}

func (s *S3Store) do(ctx context.Context, op func() error) error {
	return common.WithRetry(ctx, op, s.retry)
}

// List implements Store.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	err := s.do(ctx, func() error {
		objects = objects[:0]
		pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				return mapError(prefix, err)
			}
			for _, obj := range page.Contents {
				objects = append(objects, Object{
					Key:          aws.ToString(obj.Key),
					Size:         aws.ToInt64(obj.Size),
					LastModified: aws.ToTime(obj.LastModified),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, prefix, err)
	}
	return objects, nil
}

// FindLatest implements Store.
func (s *S3Store) FindLatest(ctx context.Context, prefix string) (Object, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return Object{}, err
	}

	latest, err := Latest(objects, prefix)
	if err != nil {
		return Object{}, err
	}
	slog.Debug("Found latest object", "bucket", s.bucket, "key", latest.Key)
	return latest, nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.do(ctx, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return mapError(key, err)
		}
		defer func() { _ = out.Body.Close() }()

		body, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	return body, nil
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if contentType == "" {
		contentType = ContentTypeBinary
	}

	err := s.do(ctx, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(s.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(body),
			ContentType:  aws.String(contentType),
			StorageClass: types.StorageClassStandard,
		})
		return mapError(key, err)
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}

	slog.Info("Uploaded object", "bucket", s.bucket, "key", key, "bytes", len(body))
	return nil
}

// Copy implements Store.
func (s *S3Store) Copy(ctx context.Context, srcKey, dstKey string) error {
	err := s.do(ctx, func() error {
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:       aws.String(s.bucket),
			CopySource:   aws.String(url.PathEscape(s.bucket + "/" + srcKey)),
			Key:          aws.String(dstKey),
			StorageClass: types.StorageClassStandard,
		})
		return mapError(srcKey, err)
	})
	if err != nil {
		return fmt.Errorf("failed to copy s3://%s/%s to %s: %w", s.bucket, srcKey, dstKey, err)
	}

	slog.Info("Copied object", "bucket", s.bucket, "from", srcKey, "to", dstKey)
	return nil
}

// Download implements Store.
func (s *S3Store) Download(ctx context.Context, key, localPath string) error {
	body, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := writeFile(localPath, bytes.NewReader(body)); err != nil {
		return err
	}

	slog.Info("Downloaded object", "bucket", s.bucket, "key", key, "path", localPath)
	return nil
}

// Upload implements Store.
func (s *S3Store) Upload(ctx context.Context, localPath, key string) error {
	body, err := os.ReadFile(localPath) //nolint:gosec // path is provided by the caller
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return s.Put(ctx, key, body, ContentTypeBinary)
}

func mapError(key string, err error) error {
	if err == nil {
		return nil
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("object %q: %w", key, common.ErrNotFound)
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("object %q: %w", key, common.ErrNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return &common.RateLimitError{Err: err, RetryAfter: retryAfter(err)}
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "NoSuchBucket":
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}
	return err
}

// retryAfter reads the Retry-After header of a throttled response, in seconds.
func retryAfter(err error) time.Duration {
	var respErr interface{ HTTPResponse() *smithyhttp.Response }
	if !errors.As(err, &respErr) {
		return 0
	}
	resp := respErr.HTTPResponse()
	if resp == nil || resp.Response == nil {
		return 0
	}
	secs, perr := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if perr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

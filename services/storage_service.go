package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kendall-kelly/tee-store-api/config"
	"go.uber.org/zap"
)

// ErrObjectExists is returned by Upload when upsert is false and the key is taken
var ErrObjectExists = errors.New("object already exists")

// StorageObject is one entry returned by List
type StorageObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// StorageService is the object storage contract used by the workflows
type StorageService interface {
	// Upload stores body under bucket/key and returns the key
	Upload(ctx context.Context, bucket, key string, body []byte, contentType string, upsert bool) (string, error)

	// List returns the objects whose key starts with prefix
	List(ctx context.Context, bucket, prefix string) ([]StorageObject, error)

	// PublicURL returns the unauthenticated URL of an object in a public bucket
	PublicURL(bucket, key string) string

	// SignedURL returns a time-limited URL for a private object
	SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)

	// Remove deletes the given keys, ignoring keys that do not exist
	Remove(ctx context.Context, bucket string, keys ...string) error
}

// S3StorageService implements StorageService on S3 or an S3-compatible endpoint
type S3StorageService struct {
	client        *s3.Client
	presign       *s3.PresignClient
	region        string
	endpoint      string
	publicBaseURL string
	log           *zap.Logger
}

// NewS3StorageService builds an S3 client from the application config
func NewS3StorageService(ctx context.Context, cfg *config.Config, log *zap.Logger) (*S3StorageService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		// S3-compatible servers generally need path-style addressing
		if cfg.AWSS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSS3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3StorageService{
		client:        client,
		presign:       s3.NewPresignClient(client),
		region:        cfg.AWSRegion,
		endpoint:      strings.TrimRight(cfg.AWSS3Endpoint, "/"),
		publicBaseURL: strings.TrimRight(cfg.StoragePublicBaseURL, "/"),
		log:           log,
	}, nil
}

// Upload stores an object. With upsert false an existing key is refused.
func (s *S3StorageService) Upload(ctx context.Context, bucket, key string, body []byte, contentType string, upsert bool) (string, error) {
	if !upsert {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			return "", fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectExists)
		}
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("failed to check object: %w", err)
		}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.log.Debug("object uploaded", zap.String("bucket", bucket), zap.String("key", key), zap.Int("bytes", len(body)))
	return key, nil
}

// List returns every object under prefix
func (s *S3StorageService) List(ctx context.Context, bucket, prefix string) ([]StorageObject, error) {
	var objects []StorageObject
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, StorageObject{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

// PublicURL builds the URL of a publicly readable object
func (s *S3StorageService) PublicURL(bucket, key string) string {
	if key == "" {
		return ""
	}
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case s.publicBaseURL != "":
		return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, bucket, escaped)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", s.endpoint, bucket, escaped)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, escaped)
	}
}

// SignedURL presigns a GET for the object valid for ttl
func (s *S3StorageService) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", nil
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

// Remove deletes keys in a single batch request
func (s *S3StorageService) Remove(ctx context.Context, bucket string, keys ...string) error {
	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
		}
	}
	if len(ids) == 0 {
		return nil
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("failed to delete %s: %s", aws.ToString(first.Key), aws.ToString(first.Message))
	}

	return nil
}

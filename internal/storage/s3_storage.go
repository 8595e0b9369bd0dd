package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
)

// Storage abstracts the object store holding shop images.
type Storage interface {
	PresignPutURL(ctx context.Context, key, contentType string, maxSize int64) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key, contentType string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// s3Storage implements Storage against an S3-compatible bucket.
type s3Storage struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	presignTTL time.Duration
}

// NewS3Storage builds a Storage from the AWS settings in cfg. A custom
// endpoint (e.g. MinIO or R2) is used when AWS_ENDPOINT_URL is set.
func NewS3Storage(ctx context.Context, cfg *config.Config) (Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AwsRegion),
	}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKeyID, cfg.AwsSecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AwsEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AwsEndpointURL)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.AwsS3Bucket,
		presignTTL: 15 * time.Minute,
	}, nil
}

// PresignPutURL returns a URL the browser can PUT the raw image to,
// scoped to the given key and content type.
func (s *s3Storage) PresignPutURL(ctx context.Context, key, contentType string, maxSize int64) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(maxSize),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *s3Storage) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *s3Storage) Upload(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

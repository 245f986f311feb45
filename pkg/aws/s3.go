package aws

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the subset of S3 the media module needs.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// S3Store presigns uploads and deletes objects in one bucket.
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	publicURL string
}

// NewS3Store creates an S3Store. publicBaseURL is the CDN or bucket URL objects are served from.
func NewS3Store(cfg sdkaws.Config, bucket, publicBaseURL string) *S3Store {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// LocalStack only serves path-style URLs.
		o.UsePathStyle = os.Getenv("AWS_ENDPOINT") != ""
	})
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, cfg.Region)
	}
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// PresignPut returns a presigned PUT URL for key.
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	presigned, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		ContentType: &contentType,
	}, func(o *s3.PresignOptions) {
		o.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign put object: %w", err)
	}
	return presigned.URL, nil
}

// Delete removes key from the bucket. Missing objects are not an error in S3.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// PublicURL is the URL clients read key from.
func (s *S3Store) PublicURL(key string) string {
	return s.publicURL + "/" + key
}

// Package aws wraps the S3 compatible object storage avatars are kept in
package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	// PublicURL is the base URL objects are served from
	PublicURL string
}

type S3Client struct {
	C         *s3.Client
	Bucket    *string
	PublicURL string

	uploader *manager.Uploader
}

// NewS3 builds a client for the configured bucket and checks that the bucket
// exists. A custom endpoint switches to path style addressing, which most
// S3 compatible providers expect
func NewS3(ctx context.Context, c S3Config) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(c.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:         client,
		Bucket:    bucket,
		PublicURL: strings.TrimRight(c.PublicURL, "/"),
		uploader:  manager.NewUploader(client),
	}, nil
}

// Put uploads body under key and returns the public URL of the object
func (s *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       s.Bucket,
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object, %w", err)
	}

	return s.URL(key), nil
}

// Delete removes the object stored under key
func (s *S3Client) Delete(ctx context.Context, key string) error {
	_, err := s.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: s.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object, %w", err)
	}

	return nil
}

// URL returns the public URL of key
func (s *S3Client) URL(key string) string {
	return s.PublicURL + "/" + key
}

// Key returns the object key behind a URL returned by URL. ok is false for
// URLs that don't point into the bucket
func (s *S3Client) Key(url string) (key string, ok bool) {
	prefix := s.PublicURL + "/"
	if s.PublicURL == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}

	key = strings.TrimPrefix(url, prefix)
	return key, key != ""
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig holds configuration for the upload archive
type ArchiveConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// Archive keeps the raw bytes of committed uploads in S3-compatible
// storage (AWS S3, MinIO, RustFS). It is a write-mostly audit trail;
// the relational store stays authoritative for content.
type Archive struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	downloadURLExpiry time.Duration
}

// NewArchive creates an Archive with the given configuration
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	// Custom resolver for S3-compatible endpoints
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing for S3-compatible services
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Archive{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		downloadURLExpiry: 1 * time.Hour,
	}, nil
}

// objectKey namespaces archived uploads per user.
func objectKey(userID, fileName string) string {
	return fmt.Sprintf("uploads/%s/%s", userID, fileName)
}

// Archive stores the raw bytes of one upload under the user's prefix.
func (a *Archive) Archive(ctx context.Context, userID, fileName string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey(userID, fileName)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to archive upload: %w", err)
	}
	return nil
}

// GenerateDownloadURL creates a presigned URL for retrieving an
// archived upload
func (a *Archive) GenerateDownloadURL(ctx context.Context, userID, fileName string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey(userID, fileName)),
	}

	presignedReq, err := a.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = a.downloadURLExpiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return presignedReq.URL, nil
}

// Delete removes an archived upload
func (a *Archive) Delete(ctx context.Context, userID, fileName string) error {
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey(userID, fileName)),
	}

	if _, err := a.client.DeleteObject(ctx, input); err != nil {
		return fmt.Errorf("failed to delete archived upload: %w", err)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *Archive) EnsureBucket(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = a.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

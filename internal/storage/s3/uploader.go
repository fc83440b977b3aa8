// Package s3 implements the object-storage uploader on top of the AWS SDK.
package s3

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/midir99/backupmpps/internal/domain"
	"github.com/midir99/backupmpps/internal/observability"
)

// Config holds the settings needed to reach the object storage service.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the storage endpoint URL, e.g. a Linode Object
	// Storage cluster. Empty means the default AWS endpoint.
	Endpoint string
	Timeout  time.Duration
}

// api is the subset of the S3 client the uploader needs.
type api interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Uploader pushes local files into a bucket and removes them afterwards.
type Uploader struct {
	client  api
	logger  observability.Logger
	metrics observability.Metrics
}

// NewUploader builds an S3-backed Uploader from cfg.
func NewUploader(ctx context.Context, cfg Config, logger observability.Logger, metrics observability.Metrics) (*Uploader, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewUploaderWithClient(client, logger, metrics), nil
}

// NewUploaderWithClient wires an Uploader around an existing client. Used
// by tests.
func NewUploaderWithClient(client api, logger observability.Logger, metrics observability.Metrics) *Uploader {
	return &Uploader{
		client:  client,
		logger:  logger,
		metrics: metrics,
	}
}

// Store uploads the file's bytes to bucket under a key equal to the file's
// base name, tagged for public readability.
func (u *Uploader) Store(ctx context.Context, localFilename, bucket string) error {
	u.metrics.StartOperation("upload")
	defer u.metrics.EndOperation("upload")
	start := time.Now()
	defer func() {
		u.metrics.RecordDuration("upload", time.Since(start).Seconds())
	}()

	file, err := os.Open(localFilename)
	if err != nil {
		u.metrics.RecordError("upload", "storage")
		return domain.E(domain.CodeStorage, fmt.Sprintf("failed to open %s", localFilename), err)
	}
	defer file.Close()

	key := filepath.Base(localFilename)
	input := &awss3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType := mime.TypeByExtension(filepath.Ext(localFilename)); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		u.metrics.RecordError("upload", "storage")
		return domain.E(domain.CodeStorage, fmt.Sprintf("failed to upload %s to bucket %s", localFilename, bucket), err)
	}

	u.metrics.RecordSuccess("upload")
	u.logger.Debug(ctx, "object stored", observability.Fields{
		"bucket": bucket,
		"key":    key,
	})
	return nil
}

// Cleanup deletes the local file. Always runs after the upload attempt,
// whatever its outcome, so the scratch directory never accumulates assets.
func (u *Uploader) Cleanup(ctx context.Context, localFilename string) error {
	if err := os.Remove(localFilename); err != nil {
		u.metrics.RecordError("cleanup", "cleanup")
		return domain.E(domain.CodeCleanup, fmt.Sprintf("failed to delete %s", localFilename), err)
	}
	return nil
}

func buildAWSConfig(ctx context.Context, cfg Config) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	if cfg.Timeout > 0 {
		optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	return awsconfig.LoadDefaultConfig(ctx, optFns...)
}

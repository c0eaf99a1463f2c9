// Package archive stores raw planner responses in object storage so failed
// or disputed generations can be inspected after the fact. Archival is best
// effort: a write failure never changes a job's outcome.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"travel-planner/internal/config"
)

// Archiver writes one object per generation attempt.
type Archiver interface {
	Store(ctx context.Context, jobID, outcome string, body []byte) error
}

// S3Archiver writes raw planner responses under <prefix>/<date>/<job>-<outcome>.json.
type S3Archiver struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an S3 archiver, or returns (nil, nil) when no bucket is
// configured so callers can treat archival as disabled.
func New(ctx context.Context, cfg config.Config) (*S3Archiver, error) {
	if cfg.ArchiveBucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.ArchiveRegion),
	}
	if cfg.ArchiveAccess != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.ArchiveAccess, cfg.ArchiveSecret, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ArchiveEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ArchiveEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archiver{client: client, bucket: cfg.ArchiveBucket, prefix: cfg.ArchivePrefix}, nil
}

// Store writes one raw response object.
func (a *S3Archiver) Store(ctx context.Context, jobID, outcome string, body []byte) error {
	key := path.Join(a.prefix, time.Now().UTC().Format("2006-01-02"), fmt.Sprintf("%s-%s.json", jobID, outcome))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

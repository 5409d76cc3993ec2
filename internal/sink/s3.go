package sink

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/naka-gawa/ghcount/internal/config"
	"github.com/naka-gawa/ghcount/internal/report"
)

// S3Sink uploads the JSON report to an S3-compatible bucket, creating the
// bucket on first use.
type S3Sink struct {
	client   *minio.Client
	bucket   string
	region   string
	logger   *log.Logger
	initOnce sync.Once
	initErr  error
}

// NewS3Sink creates a sink for cfg.
func NewS3Sink(cfg config.S3Config, logger *log.Logger) (*S3Sink, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Sink{client: client, bucket: bucket, region: region, logger: logger}, nil
}

func (s *S3Sink) Name() string {
	return "s3"
}

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.logger.Printf("Sink: creating bucket %s", s.bucket)
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Publish writes the report to reports/<runID>.json.
func (s *S3Sink) Publish(ctx context.Context, runID string, r report.Report) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run_id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	content, err := report.Marshal(r)
	if err != nil {
		return err
	}
	key := ObjectKey(runID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.logger.Printf("Sink: uploaded s3://%s/%s", s.bucket, key)
	return nil
}

// ObjectKey is the object name of the report of runID.
func ObjectKey(runID string) string {
	return "reports/" + runID + ".json"
}

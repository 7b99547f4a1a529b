package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"fitting-console/core/diagnostics"
	"fitting-console/core/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// S3Config represents the object store holding exported reports
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO and other S3 compatible stores
	AccessKeyID     string // empty uses the default credential chain
	SecretAccessKey string
}

// NewS3Client creates an S3 client for the report bucket
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("report bucket cannot be empty")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region cannot be empty")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.Endpoint == "" {
		return s3.NewFromConfig(awsCfg), nil
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// ObjectPutter is the part of the S3 API the report store writes through
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportRecorder keeps an index of exported reports
type ReportRecorder interface {
	CreateReport(ctx context.Context, rec repository.ReportRecord) (string, error)
}

// ReportStore exports diagnostics views as JSON documents to S3
type ReportStore struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	records ReportRecorder
	now     func() time.Time
}

// NewReportStore creates a report store. records may be nil, in which case
// exported reports are not indexed.
func NewReportStore(client ObjectPutter, bucket, prefix string, records ReportRecorder) *ReportStore {
	return &ReportStore{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		records: records,
		now:     time.Now,
	}
}

// SaveReport uploads the view and returns where it was stored
func (rs *ReportStore) SaveReport(ctx context.Context, view *diagnostics.DiagnosticsView) (*repository.ReportRecord, error) {
	if view == nil || view.ModelID == "" {
		return nil, fmt.Errorf("report has no model")
	}

	body, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	createdAt := rs.now().UTC()
	reportID := uuid.New().String()
	key := path.Join(rs.prefix, view.ModelID, createdAt.Format("20060102T150405Z")+"-"+reportID+".json")

	_, err = rs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(rs.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"model-id":   view.ModelID,
			"model-type": view.ModelType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload report for model %s: %w", view.ModelID, err)
	}

	rec := repository.ReportRecord{
		ID:        reportID,
		ModelID:   view.ModelID,
		URI:       fmt.Sprintf("s3://%s/%s", rs.bucket, key),
		CreatedAt: createdAt,
	}
	if view.Headline != nil {
		rec.R2 = view.Headline.Metrics.R2
		rec.Bucket = string(view.Headline.Bucket)
	}

	log.Info().Str("model_id", view.ModelID).Str("uri", rec.URI).Msg("Report exported")

	if rs.records != nil {
		if _, err := rs.records.CreateReport(ctx, rec); err != nil {
			log.Warn().Err(err).Str("uri", rec.URI).Msg("Failed to index exported report")
		}
	}
	return &rec, nil
}

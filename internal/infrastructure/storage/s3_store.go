// Package storage persists rendered and intermediate images in object
// storage. Segmentation and async render backends need publicly fetchable
// URLs, so uploads land under a public-read prefix.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/valueobjects"
)

// S3Store uploads images to S3 paths like:
//
//	s3://<bucket>/<rootPrefix>/<prefix>/YYYY/MM/DD/<uuid>.<ext>
type S3Store struct {
	bucket     string
	region     string
	rootPrefix string
	uploader   *manager.Uploader
	log        zerolog.Logger
}

// NewS3Store creates an S3Store. Region and credentials come from the
// environment (AWS_REGION, AWS_PROFILE, AWS_ACCESS_KEY_ID/SECRET etc.).
func NewS3Store(ctx context.Context, bucket, region, rootPrefix string, log zerolog.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	return &S3Store{
		bucket:     bucket,
		region:     region,
		rootPrefix: rootPrefix,
		uploader:   manager.NewUploader(client),
		log:        log,
	}, nil
}

// Upload stores the image and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, image *valueobjects.ImageData, prefix string) (string, error) {
	if image == nil {
		return "", fmt.Errorf("nil image")
	}

	now := time.Now().UTC()
	year, month, day := now.Date()
	objectKey := path.Join(s.rootPrefix, prefix,
		fmt.Sprintf("%04d", year),
		fmt.Sprintf("%02d", int(month)),
		fmt.Sprintf("%02d", day),
		fmt.Sprintf("%s.%s", uuid.NewString(), image.Format()),
	)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(image.Data()),
		ContentType: aws.String(image.MimeType()),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
	s.log.Debug().Str("key", objectKey).Int("bytes", len(image.Data())).Msg("image uploaded")
	return url, nil
}

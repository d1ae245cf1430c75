package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/sairammr/TruthCast/internal/common"
)

// S3Config carries settings for an S3-compatible backend (MinIO etc.).
type S3Config struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// s3API is the subset of the S3 client used by the uploader.
// *s3.Client satisfies it.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores content in an S3-compatible bucket. URIs use the
// s3://bucket/key form.
type S3Uploader struct {
	client s3API
	bucket string
}

// NewS3Uploader connects to the configured S3-compatible endpoint with
// static credentials.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.RootUser,
			cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

// randomStorageKey partitions objects by date so buckets stay browsable.
func randomStorageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%d/%d/%v_%s", d.Year(), d.Month(), d.Day(), uuid.New(), filename)
}

func (u *S3Uploader) UploadBinary(ctx context.Context, data []byte, filename string, policy *AccessPolicy) (string, error) {
	key := randomStorageKey(filename)

	input := &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
	}
	// objects are private by default; without a policy the content is meant
	// to be publicly playable
	if policy == nil {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

func (u *S3Uploader) UploadJSON(ctx context.Context, doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: marshal: %w", common.ErrUploadFailed, err)
	}

	key := randomStorageKey("metadata.json")

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &u.bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

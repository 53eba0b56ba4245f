package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DefaultS3Key is the object key used when S3Config.Key is empty.
const DefaultS3Key = "farm/db.json"

// ObjectAPI is the subset of *s3.Client the S3 resource uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3 (or MinIO) connection parameters.
type S3Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string // optional; enables a custom endpoint such as MinIO
	PathStyle bool
}

// S3Resource stores the Database as a single object in an S3 bucket. A
// PutObject replaces the object in full, so readers never see partial writes.
type S3Resource struct {
	client ObjectAPI
	bucket string
	key    string
}

// NewS3Resource builds an S3 client from the default AWS credentials chain.
func NewS3Resource(ctx context.Context, cfg S3Config) (*S3Resource, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewS3ResourceWithClient(client, cfg.Bucket, cfg.Key), nil
}

// NewS3ResourceWithClient wraps an existing client.
func NewS3ResourceWithClient(client ObjectAPI, bucket, key string) *S3Resource {
	if key == "" {
		key = DefaultS3Key
	}
	return &S3Resource{client: client, bucket: bucket, key: key}
}

func (r *S3Resource) Read(ctx context.Context) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &r.bucket, Key: &r.key})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrNotExist, r.bucket, r.key)
		}
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (r *S3Resource) Write(ctx context.Context, data []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &r.bucket,
		Key:         &r.key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (r *S3Resource) String() string {
	return fmt.Sprintf("s3://%s/%s", r.bucket, r.key)
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

package blobstore

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"hostel_hub/internal/adapters/observability"
)

// PutObjectAPI is the slice of the S3 client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Options struct {
	Bucket        string
	Region        string
	Endpoint      string // S3-compatible endpoint (MinIO, R2); empty for AWS
	PublicBaseURL string // e.g. CDN origin; defaults to the bucket URL
	AccessKeyID   string
	SecretKey     string
}

type S3 struct {
	api    PutObjectAPI
	bucket string
	public string
}

// NewS3 builds an S3 client from the default AWS config chain. Static keys,
// when given, take precedence over the chain.
func NewS3(ctx context.Context, o Options) (*S3, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	loaders := []func(*awsconfig.LoadOptions) error{}
	if o.Region != "" {
		loaders = append(loaders, awsconfig.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return NewWithAPI(client, o), nil
}

func NewWithAPI(api PutObjectAPI, o Options) *S3 {
	return &S3{api: api, bucket: o.Bucket, public: publicBase(o)}
}

func publicBase(o Options) string {
	switch {
	case o.PublicBaseURL != "":
		return strings.TrimRight(o.PublicBaseURL, "/")
	case o.Endpoint != "":
		return strings.TrimRight(o.Endpoint, "/") + "/" + o.Bucket
	case o.Region != "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", o.Bucket)
}

func (s *S3) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	key = strings.TrimLeft(key, "/")
	start := time.Now()
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		observability.ObserveExternal("s3", "put_object", 0, time.Since(start))
		observability.ObserveExternalError("s3", "put_object", err)
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	observability.ObserveExternal("s3", "put_object", 200, time.Since(start))
	return s.public + "/" + escapeKey(key), nil
}

// escapeKey escapes each path segment but keeps the slashes.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

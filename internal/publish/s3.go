package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3 defaults.
const (
	DefaultS3Region   = "us-east-1"
	DefaultPresignTTL = 24 * time.Hour
	// MaxPresignTTL is the longest expiry SigV4 allows.
	MaxPresignTTL = 7 * 24 * time.Hour
)

// S3Config locates the bucket. Credentials come from the default AWS chain
// unless AccessKeyID is set.
type S3Config struct {
	Bucket       string
	Region       string
	Prefix       string
	Endpoint     string // optional, for MinIO and other S3-compatible stores
	UsePathStyle bool
	PresignTTL   time.Duration

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3 uploads documents and returns presigned GET URLs.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	ttl     time.Duration
}

// NewS3 creates an S3 publisher. optFns adjust the client, for example to
// swap the HTTP transport in tests.
func NewS3(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w: s3 bucket required", ErrConfig)
	}
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	if ttl > MaxPresignTTL {
		return nil, fmt.Errorf("%w: presign TTL %s exceeds %s", ErrConfig, ttl, MaxPresignTTL)
	}
	region := cfg.Region
	if region == "" {
		region = DefaultS3Region
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrConfig, err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)
	client := s3.NewFromConfig(awsCfg, opts...)

	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		ttl:     ttl,
	}, nil
}

// Driver returns DriverS3.
func (s *S3) Driver() string { return DriverS3 }

// Key returns the object key for a file name.
func (s *S3) Key(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return path.Join(s.prefix, filename)
}

// Publish uploads the file and returns a presigned GET URL.
func (s *S3) Publish(ctx context.Context, p string) (string, error) {
	f, err := os.Open(p) // #nosec G304 -- path produced by the generator
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer f.Close()

	name := filepath.Base(p)
	key := s.Key(name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             &s.bucket,
		Key:                &key,
		Body:               f,
		ContentType:        aws.String("application/pdf"),
		ContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", name)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: uploading %s: %v", ErrPublish, key, err)
	}

	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key},
		func(po *s3.PresignOptions) { po.Expires = s.ttl })
	if err != nil {
		return "", fmt.Errorf("%w: presigning %s: %v", ErrPublish, key, err)
	}
	return out.URL, nil
}

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chipsfactory/prodreport/internal/common"
)

// Fetcher opens a dataset source for reading. Sources are fetched wholesale;
// there is no streaming or partial read.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// LocalFetcher reads sources from the local filesystem.
type LocalFetcher struct{}

func (LocalFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	f, err := os.Open(source)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, source)
		}
		return nil, fmt.Errorf("open %s: %w", source, err)
	}
	return f, nil
}

// S3Config carries the object-storage settings for remote dataset sources.
type S3Config struct {
	RootUser     string
	RootPassword string
	Region       string
	BaseEndpoint string
}

// S3Fetcher reads "s3://bucket/key" sources via an S3-compatible backend.
type S3Fetcher struct {
	cfg S3Config
}

func NewS3Fetcher(cfg S3Config) *S3Fetcher {
	return &S3Fetcher{cfg: cfg}
}

func (f *S3Fetcher) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(f.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			f.cfg.RootUser,
			f.cfg.RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if f.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(f.cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	bucket, key, err := splitS3Source(source)
	if err != nil {
		return nil, err
	}

	client, err := f.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, source)
	}
	return out.Body, nil
}

func splitS3Source(source string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(source, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 source %q", source)
	}
	return bucket, key, nil
}

// MultiFetcher dispatches by source scheme: "s3://" goes to the S3 fetcher,
// everything else to the local one.
type MultiFetcher struct {
	Local Fetcher
	S3    Fetcher
}

func (m MultiFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "s3://") {
		if m.S3 == nil {
			return nil, fmt.Errorf("s3 sources are not configured")
		}
		return m.S3.Fetch(ctx, source)
	}
	return m.Local.Fetch(ctx, source)
}

package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/stacklok/accreg-sync/internal/config"
)

// ObjectGetter is the part of the S3 client the handler uses
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3SourceHandler downloads snapshots from an S3 compatible bucket
type s3SourceHandler struct {
	newClient func(ctx context.Context, cfg *config.S3Config) (ObjectGetter, error)
}

// NewS3SourceHandler creates a new S3 source handler
func NewS3SourceHandler() SourceHandler {
	return &s3SourceHandler{newClient: newS3Client}
}

// NewS3SourceHandlerWithClient creates an S3 source handler around an existing client
func NewS3SourceHandlerWithClient(client ObjectGetter) SourceHandler {
	return &s3SourceHandler{
		newClient: func(context.Context, *config.S3Config) (ObjectGetter, error) {
			return client, nil
		},
	}
}

func newS3Client(ctx context.Context, cfg *config.S3Config) (ObjectGetter, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		secret, err := cfg.GetSecretAccessKey()
		if err != nil {
			return nil, err
		}
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, secret, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Validate validates the S3 source configuration
func (*s3SourceHandler) Validate(source *config.SourceConfig) error {
	if source == nil {
		return fmt.Errorf("source configuration cannot be nil")
	}
	if source.S3 == nil {
		return fmt.Errorf("s3 configuration is required")
	}
	if source.S3.Bucket == "" || source.S3.Key == "" {
		return fmt.Errorf("s3 bucket and key cannot be empty")
	}
	return nil
}

// Fetch downloads the configured object and extracts it when it is an archive
func (h *s3SourceHandler) Fetch(ctx context.Context, source *config.SourceConfig) (*FetchResult, error) {
	if err := h.Validate(source); err != nil {
		return nil, err
	}

	client, err := h.newClient(ctx, source.S3)
	if err != nil {
		return nil, err
	}

	ws, err := NewWorkspace(source.GetDownloadDir())
	if err != nil {
		return nil, err
	}
	unlock, err := ws.Lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	origin := fmt.Sprintf("s3://%s/%s", source.S3.Bucket, source.S3.Key)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(source.S3.Bucket),
		Key:    aws.String(source.S3.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", origin, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	tmp, err := ws.TempFile(archiveFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create download file: %w", err)
	}
	n, err := io.Copy(tmp, out.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", origin, err)
	}
	slog.DebugContext(ctx, "Downloaded", "object", origin, "bytes", n)

	path, err := ws.Commit(tmp.Name(), archiveFileName)
	if err != nil {
		return nil, err
	}
	xmlPath, err := placeSnapshot(path, ws.Dir())
	if err != nil {
		return nil, err
	}
	return NewFetchResult(xmlPath, origin)
}

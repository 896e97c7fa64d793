// Package objectstore fetches extract files from S3-compatible object storage.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vietddude/legisync/internal/core/errs"
)

// Config holds bucket settings. Empty keys fall back to the default AWS
// credential chain.
type Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool { return c.Bucket != "" }

// API is the subset of the S3 client the syncer needs.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Syncer mirrors the CSV objects under a prefix into a local directory.
type Syncer struct {
	api    API
	bucket string
	prefix string
	log    *slog.Logger
}

// NewSyncer builds an S3 client from cfg.
func NewSyncer(ctx context.Context, cfg Config, log *slog.Logger) (*Syncer, error) {
	if !cfg.Enabled() {
		return nil, errs.Validationf("objectstore", "s3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, cfg.Bucket, cfg.Prefix, log), nil
}

// New wraps an existing client.
func New(api API, bucket, prefix string, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{api: api, bucket: bucket, prefix: prefix, log: log.With("component", "objectstore")}
}

// Sync downloads every .csv object under the prefix into dir, flattening
// keys to their base name. It returns the local file names written.
func (s *Syncer) Sync(ctx context.Context, dir string) ([]string, error) {
	const op = "objectstore.sync"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Store(op, err)
	}

	var written []string
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return written, errs.FromNetwork(op, fmt.Errorf("list objects: %w", err))
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.EqualFold(path.Ext(key), ".csv") {
				continue
			}
			name := path.Base(key)
			if err := s.download(ctx, key, filepath.Join(dir, name)); err != nil {
				return written, errs.FromNetwork(op, fmt.Errorf("download %s: %w", key, err))
			}
			s.log.Debug("Downloaded extract", "key", key, "bytes", aws.ToInt64(obj.Size))
			written = append(written, name)
		}
	}

	s.log.Info("Synced extracts", "bucket", s.bucket, "prefix", s.prefix, "files", len(written))
	return written, nil
}

// download writes to a temp file first so a partial object never replaces a
// complete extract.
func (s *Syncer) download(ctx context.Context, key, dest string) error {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer out.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sync-*")
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(tmp, out.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

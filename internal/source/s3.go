package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/logging"
)

// S3Client is the subset of the S3 API the fetcher needs. It satisfies
// manager.DownloadAPIClient.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher downloads months from an S3 bucket (or an S3-compatible mirror)
// holding copies of the public trip-data files.
type S3Fetcher struct {
	downloader *manager.Downloader
	bucket     string
	prefix     string
	cacheDir   string
	logger     *slog.Logger
}

// NewS3Fetcher creates an S3Fetcher reading <bucket>/<prefix>/<object name>.
func NewS3Fetcher(client S3Client, bucket, prefix, cacheDir string) *S3Fetcher {
	return &S3Fetcher{
		downloader: manager.NewDownloader(client),
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		cacheDir:   cacheDir,
		logger:     logging.Component("source"),
	}
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A non-empty endpoint switches to path-style addressing for
// S3-compatible stores such as MinIO.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Key returns the object key for a month.
func (f *S3Fetcher) Key(year, month int) string {
	if f.prefix == "" {
		return ObjectName(year, month)
	}
	return path.Join(f.prefix, ObjectName(year, month))
}

// Fetch implements Fetcher.
func (f *S3Fetcher) Fetch(ctx context.Context, year, month int) (string, error) {
	local, ok, err := cached(f.cacheDir, year, month)
	if err != nil {
		return "", err
	}
	if ok {
		f.logger.Debug("using cached source file", "path", local)
		return local, nil
	}

	key := f.Key(year, month)
	f.logger.Info("downloading source object", "bucket", f.bucket, "key", key)

	var n int64
	err = writeAtomic(local, func(w *os.File) error {
		var derr error
		n, derr = f.downloader.Download(ctx, w, &s3.GetObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(key),
		})
		if derr != nil {
			return fmt.Errorf("%v: %w", derr, errors.ErrSourceFetch)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("get s3://%s/%s: %w", f.bucket, key, err)
	}

	f.logger.Info("source object downloaded", "path", local, "bytes", n)
	return local, nil
}

// Package source fetches the monthly trip-data files the sampler draws from.
//
// Every fetcher resolves a (year, month) pair to a local Parquet path.
// Remote fetchers download into a cache directory once and reuse the cached
// copy on later calls.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xtxerr/pqbench/internal/config"
	"github.com/xtxerr/pqbench/internal/errors"
	"golang.org/x/sync/errgroup"
)

// Fetcher resolves one month of source data to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, year, month int) (string, error)
}

// ObjectName returns the trip-data file name for a month.
func ObjectName(year, month int) string {
	return fmt.Sprintf("yellow_tripdata_%04d-%02d.parquet", year, month)
}

// New creates the fetcher selected by cfg.Kind.
func New(ctx context.Context, cfg config.SourceConfig) (Fetcher, error) {
	switch cfg.Kind {
	case config.SourceHTTP:
		return NewHTTPFetcher(cfg.BaseURL, cfg.CacheDir), nil
	case config.SourceS3:
		client, err := NewS3Client(ctx, cfg.Region, cfg.Endpoint)
		if err != nil {
			return nil, err
		}
		return NewS3Fetcher(client, cfg.Bucket, cfg.Prefix, cfg.CacheDir), nil
	case config.SourceLocal:
		return &LocalFetcher{Dir: cfg.Dir}, nil
	default:
		return nil, fmt.Errorf("source kind %q: %w", cfg.Kind, errors.ErrUnknownSource)
	}
}

// FetchAll fetches months start..stop (inclusive) with at most concurrency
// downloads in flight and returns the local paths in month order.
func FetchAll(ctx context.Context, f Fetcher, year, start, stop, concurrency int) ([]string, error) {
	if stop < start {
		return nil, nil
	}

	paths := make([]string, stop-start+1)

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for m := start; m <= stop; m++ {
		g.Go(func() error {
			p, err := f.Fetch(ctx, year, m)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", ObjectName(year, m), err)
			}
			paths[m-start] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// LocalFetcher reads months from a directory that already holds the files.
type LocalFetcher struct {
	Dir string
}

// Fetch implements Fetcher.
func (l *LocalFetcher) Fetch(_ context.Context, year, month int) (string, error) {
	path := filepath.Join(l.Dir, ObjectName(year, month))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, errors.ErrSourceNotFound)
		}
		return "", err
	}
	return path, nil
}

// cached returns the cache path for a month and whether it already exists.
func cached(dir string, year, month int) (string, bool, error) {
	path := filepath.Join(dir, ObjectName(year, month))
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, true, nil
	case os.IsNotExist(err):
		return path, false, nil
	default:
		return "", false, err
	}
}

// writeFile streams r into path through a temporary file in the same
// directory, so a partial download never looks like a cached file.
func writeFile(path string, r io.Reader) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := io.Copy(f, r)
		return err
	})
}

// writeAtomic lets fill write a temporary file next to path and renames it
// into place once fill succeeds.
func writeAtomic(path string, fill func(f *os.File) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".part-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := fill(tmp); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Package parquetfile inspects Parquet files and names the compression
// codecs sample files may be written with.
package parquetfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xtxerr/pqbench/internal/errors"
)

// Codec is a Parquet compression codec understood by the sampler.
type Codec string

const (
	CodecNone   Codec = "uncompressed"
	CodecSnappy Codec = "snappy"
	CodecZstd   Codec = "zstd"
	CodecGzip   Codec = "gzip"
)

// ParseCodec parses a compression name. The empty string means snappy.
//
// fraugster's reader has no zstd decompressor. zstd samples make that
// adapter fail while the others still run.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "snappy", "":
		return CodecSnappy, nil
	case "zstd":
		return CodecZstd, nil
	case "gzip":
		return CodecGzip, nil
	case "none", "uncompressed":
		return CodecNone, nil
	default:
		return "", errors.NewInvalidValue("compression", s, "must be one of snappy, zstd, gzip, none")
	}
}

// FileInfo holds information about a Parquet file.
type FileInfo struct {
	Path    string
	Size    int64
	NumRows int64
	Columns []string
}

// Inspect returns information about a Parquet file.
func Inspect(path string) (*FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("parquet file", path)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	return &FileInfo{
		Path:    path,
		Size:    stat.Size(),
		NumRows: pf.NumRows(),
		Columns: ColumnNames(pf.Schema()),
	}, nil
}

// ColumnNames returns the dotted leaf column paths of schema in file order.
func ColumnNames(schema *parquet.Schema) []string {
	paths := schema.Columns()
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = strings.Join(p, ".")
	}
	return names
}

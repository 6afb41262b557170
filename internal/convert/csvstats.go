package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/parquetfile"
)

// CSVStats summarizes the CSV output under a directory.
type CSVStats struct {
	// Files is the number of CSV files found.
	Files int

	// Header is the column row shared by every file.
	Header []string

	// Rows is the number of data rows across all files.
	Rows int64
}

// CountCSV walks dir and counts the data rows of every .csv file in it.
// The first record of each file is its header; all headers must match.
func CountCSV(dir string) (CSVStats, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return CSVStats{}, fmt.Errorf("walk %s: %w", dir, err)
	}
	slices.Sort(paths)

	var stats CSVStats
	for _, path := range paths {
		header, rows, err := countFile(path)
		if err != nil {
			return CSVStats{}, err
		}

		if stats.Header == nil {
			stats.Header = header
		} else if header != nil && !slices.Equal(header, stats.Header) {
			return CSVStats{}, fmt.Errorf("%s: header %v differs from %v: %w",
				path, header, stats.Header, errors.ErrMalformedRecord)
		}

		stats.Files++
		stats.Rows += rows
	}

	return stats, nil
}

func countFile(path string) ([]string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%s: read header: %w", path, err)
	}
	header = slices.Clone(header)

	var rows int64
	for {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", path, err)
		}
		rows++
	}
	return header, rows, nil
}

// VerifyRowCount returns an Options.Inspect hook that checks the CSV output
// in dir holds as many data rows as the sample it was converted from. The
// sample is found through the single entry directly under dir, which is
// either <stem>.csv or the partition directory <stem>.
func VerifyRowCount(layout Layout) func(dir string) error {
	return func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read output directory: %w", err)
		}
		if len(entries) != 1 {
			return fmt.Errorf("expected one output entry in %s, found %d: %w",
				dir, len(entries), errors.ErrMalformedRecord)
		}
		stem := strings.TrimSuffix(entries[0].Name(), ".csv")

		info, err := parquetfile.Inspect(layout.Input(stem))
		if err != nil {
			return err
		}

		stats, err := CountCSV(dir)
		if err != nil {
			return err
		}
		if stats.Rows != info.NumRows {
			return fmt.Errorf("%s: %d csv rows, %d parquet rows: %w",
				stem, stats.Rows, info.NumRows, errors.ErrRowCountMismatch)
		}
		return nil
	}
}

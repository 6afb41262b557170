// Package manifest reads and writes the sample manifest, the CSV file that
// maps each sample's row count to its Parquet filename.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/xtxerr/pqbench/internal/errors"
)

// Header is the manifest's column row.
var Header = []string{"num_rows", "filename"}

// ParquetExt is the extension of sample files.
const ParquetExt = ".parquet"

// Entry is one manifest row.
type Entry struct {
	Size     int64
	Filename string
}

// Sample is a manifest entry resolved to its file-stem.
type Sample struct {
	Size int64
	Stem string
}

// Filename returns the sample filename for a year, month range and size,
// e.g. taxi_data_2024-0104_1000.parquet.
func Filename(year, monthStart, monthStop int, size int64) string {
	return fmt.Sprintf("taxi_data_%d-%02d%02d_%d%s", year, monthStart, monthStop, size, ParquetExt)
}

// Stem returns filename up to its first dot.
func Stem(filename string) string {
	if i := strings.IndexByte(filename, '.'); i >= 0 {
		return filename[:i]
	}
	return filename
}

// Samples keeps entries whose filename ends with ext and resolves their stems.
// Order is preserved.
func Samples(entries []Entry, ext string) []Sample {
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Filename, ext) {
			continue
		}
		samples = append(samples, Sample{Size: e.Size, Stem: Stem(e.Filename)})
	}
	return samples
}

// Write writes entries to path in the given order, replacing any existing file.
func Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	if err := Encode(f, entries); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	return nil
}

// Encode writes the manifest header and entries to w.
func Encode(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{strconv.FormatInt(e.Size, 10), e.Filename}); err != nil {
			return fmt.Errorf("write manifest entry: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush manifest: %w", err)
	}
	return nil
}

// Read loads the manifest at path and returns its entries sorted by
// ascending size.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, errors.ErrManifestNotFound)
		}
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	entries, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Decode parses a manifest and returns its entries sorted by ascending size.
// Columns are located by header name, so extra columns are ignored.
func Decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty manifest: %w", errors.ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	sizeCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case Header[0]:
			sizeCol = i
		case Header[1]:
			nameCol = i
		}
	}
	if sizeCol < 0 || nameCol < 0 {
		return nil, fmt.Errorf("header %v lacks %v: %w", header, Header, errors.ErrMalformedRecord)
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read entry: %w", err)
		}

		line, _ := cr.FieldPos(sizeCol)
		size, err := strconv.ParseInt(strings.TrimSpace(rec[sizeCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: num_rows %q: %w", line, rec[sizeCol], errors.ErrMalformedRecord)
		}
		entries = append(entries, Entry{Size: size, Filename: rec[nameCol]})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Size < entries[j].Size
	})
	return entries, nil
}

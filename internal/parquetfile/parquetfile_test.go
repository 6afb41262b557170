package parquetfile

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xtxerr/pqbench/internal/errors"
	"github.com/xtxerr/pqbench/internal/testutil"
)

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.parquet")
	testutil.WriteTrips(t, path, 250)

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if info.NumRows != 250 {
		t.Errorf("NumRows = %d, want 250", info.NumRows)
	}
	if info.Size == 0 {
		t.Error("Size should not be zero")
	}
	if !reflect.DeepEqual(info.Columns, testutil.TripColumns) {
		t.Errorf("Columns = %v, want %v", info.Columns, testutil.TripColumns)
	}
}

func TestInspectMissing(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "missing.parquet"))
	if !errors.IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestParseCodec(t *testing.T) {
	tests := []struct {
		input string
		want  Codec
	}{
		{"", CodecSnappy},
		{"snappy", CodecSnappy},
		{"ZSTD", CodecZstd},
		{"gzip", CodecGzip},
		{"none", CodecNone},
	}

	for _, tt := range tests {
		got, err := ParseCodec(tt.input)
		if err != nil {
			t.Errorf("ParseCodec(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCodec(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := ParseCodec("lzo"); !errors.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

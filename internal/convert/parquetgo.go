package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
	"github.com/xtxerr/pqbench/internal/parquetfile"
)

// rowBatch is how many rows are pulled from a parquet-go reader per call.
const rowBatch = 1024

// parquetGoConverter materializes every row as a CSV record in memory and
// writes them with one WriteAll call.
type parquetGoConverter struct {
	base
}

func (c *parquetGoConverter) Convert(_ context.Context, stem string) error {
	output := c.layout.Output(stem)

	return c.execute(stem, func(input string) error {
		src, err := openRows(input)
		if err != nil {
			return err
		}
		defer src.Close()

		records := make([][]string, 0, src.file.NumRows()+1)
		records = append(records, src.header)
		err = src.each(func(record []string) error {
			records = append(records, record)
			return nil
		})
		if err != nil {
			return err
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()

		if err := csv.NewWriter(f).WriteAll(records); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		return f.Close()
	})
}

// parquetGoLazyConverter streams rows straight from the reader into CSV
// partitions of at most ChunkSize rows. Nothing is read before the first
// partition is opened.
type parquetGoLazyConverter struct {
	base
}

func (c *parquetGoLazyConverter) Convert(_ context.Context, stem string) error {
	dir := c.layout.PartitionDir(stem)

	return c.execute(stem, func(input string) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create partition directory: %w", err)
		}

		src, err := openRows(input)
		if err != nil {
			return err
		}
		defer src.Close()

		sink := &partitionSink{dir: dir, header: src.header, limit: c.opts.ChunkSize}
		defer sink.close()

		if err := src.each(sink.write); err != nil {
			return err
		}
		return sink.close()
	})
}

// partitionSink writes records to part-NNNNN.csv files, each with a header
// and at most limit data rows.
type partitionSink struct {
	dir    string
	header []string
	limit  int

	part int
	rows int
	file *os.File
	w    *csv.Writer
}

func (s *partitionSink) write(record []string) error {
	if s.w == nil || s.rows == s.limit {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	s.rows++
	return nil
}

func (s *partitionSink) rotate() error {
	if err := s.close(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("part-%05d.csv", s.part))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create partition: %w", err)
	}

	s.file = f
	s.w = csv.NewWriter(f)
	s.part++
	s.rows = 0

	if err := s.w.Write(s.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// close flushes and closes the open partition, if any. Safe to call twice.
func (s *partitionSink) close() error {
	if s.file == nil {
		return nil
	}

	s.w.Flush()
	werr := s.w.Error()
	cerr := s.file.Close()
	s.file, s.w = nil, nil

	if werr != nil {
		return fmt.Errorf("flush partition: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close partition: %w", cerr)
	}
	return nil
}

// rowSource reads a Parquet file row by row with parquet-go.
type rowSource struct {
	f       *os.File
	file    *parquet.File
	reader  *parquet.Reader
	header  []string
	formats []columnFormat
}

func openRows(path string) (*rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat input: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	return &rowSource{
		f:       f,
		file:    pf,
		reader:  parquet.NewReader(pf),
		header:  parquetfile.ColumnNames(pf.Schema()),
		formats: leafFormats(pf.Schema()),
	}, nil
}

// each calls fn with every row rendered as a CSV record. The record is not
// reused between calls.
func (s *rowSource) each(fn func(record []string) error) error {
	buf := make([]parquet.Row, rowBatch)
	for {
		n, err := s.reader.ReadRows(buf)
		for _, row := range buf[:n] {
			if ferr := fn(formatRow(row, s.formats)); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rows: %w", err)
		}
	}
}

func (s *rowSource) Close() error {
	rerr := s.reader.Close()
	ferr := s.f.Close()
	if rerr != nil {
		return rerr
	}
	return ferr
}

// leafFormats returns the format of every leaf column, indexed like
// parquet.Value.Column.
func leafFormats(schema *parquet.Schema) []columnFormat {
	paths := schema.Columns()
	formats := make([]columnFormat, len(paths))
	for i, path := range paths {
		if leaf, ok := schema.Lookup(path...); ok {
			formats[i] = logicalFormat(leaf.Node.Type().LogicalType())
		}
	}
	return formats
}

// logicalFormat maps a logical type to its format. parquet-go already
// translates legacy converted types into logical types.
func logicalFormat(lt *format.LogicalType) columnFormat {
	switch {
	case lt == nil:
		return columnFormat{}
	case lt.Timestamp != nil:
		switch u := lt.Timestamp.Unit; {
		case u.Millis != nil:
			return timestampFormat(time.Millisecond)
		case u.Nanos != nil:
			return timestampFormat(time.Nanosecond)
		default:
			return timestampFormat(time.Microsecond)
		}
	case lt.Date != nil:
		return columnFormat{kind: dateValue}
	case lt.Decimal != nil:
		return decimalFormat(lt.Decimal.Scale)
	default:
		return columnFormat{}
	}
}

// formatRow renders row as one field per leaf column. Repeated values of a
// column are joined with a space.
func formatRow(row parquet.Row, formats []columnFormat) []string {
	columns := len(formats)
	record := make([]string, columns)
	seen := make([]bool, columns)
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= columns {
			continue
		}
		s := formats[col].formatValue(v)
		if seen[col] {
			record[col] = strings.TrimSpace(record[col] + " " + s)
			continue
		}
		record[col] = s
		seen[col] = true
	}
	return record
}

// formatValue renders a parquet-go value. Values are copied out of the
// reader's buffers, which are reused on the next ReadRows call.
func (cf columnFormat) formatValue(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}

	switch cf.kind {
	case timestampValue:
		if v.Kind() == parquet.Int64 {
			return formatTimestamp(v.Int64(), cf.unit)
		}
	case dateValue:
		if v.Kind() == parquet.Int32 {
			return formatDate(v.Int32())
		}
	case decimalValue:
		switch v.Kind() {
		case parquet.Int32:
			return formatDecimal(big.NewInt(int64(v.Int32())), cf.scale)
		case parquet.Int64:
			return formatDecimal(big.NewInt(v.Int64()), cf.scale)
		case parquet.ByteArray, parquet.FixedLenByteArray:
			return formatDecimal(bigEndianInt(v.ByteArray()), cf.scale)
		}
	}

	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

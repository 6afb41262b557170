package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"time"

	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquet"
)

// fraugsterConverter loads every row into memory as a column map, then
// appends the rows to the CSV file in chunks of ChunkSize, flushing after
// each chunk.
type fraugsterConverter struct {
	base
}

func (c *fraugsterConverter) Convert(_ context.Context, stem string) error {
	output := c.layout.Output(stem)

	return c.execute(stem, func(input string) error {
		columns, formats, rows, err := readRowMaps(input)
		if err != nil {
			return err
		}

		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()

		w := csv.NewWriter(f)
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}

		record := make([]string, len(columns))
		for start := 0; start < len(rows); start += c.opts.ChunkSize {
			end := min(start+c.opts.ChunkSize, len(rows))
			for _, row := range rows[start:end] {
				for i, name := range columns {
					record[i] = formats[i].formatAny(row[name])
				}
				if err := w.Write(record); err != nil {
					return fmt.Errorf("write row: %w", err)
				}
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return fmt.Errorf("flush chunk at row %d: %w", start, err)
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		return f.Close()
	})
}

// readRowMaps reads the whole file and returns the top-level column names in
// schema order, their formats and every row.
func readRowMaps(path string) ([]string, []columnFormat, []map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	fr, err := goparquet.NewFileReader(f)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open parquet: %w", err)
	}

	var columns []string
	var formats []columnFormat
	for _, col := range fr.GetSchemaDefinition().RootColumn.Children {
		columns = append(columns, col.SchemaElement.Name)
		formats = append(formats, schemaElementFormat(col.SchemaElement))
	}

	rows := make([]map[string]interface{}, 0, fr.NumRows())
	for {
		row, err := fr.NextRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}

	return columns, formats, rows, nil
}

// schemaElementFormat reads the logical type of a column, falling back to
// the converted type older writers use.
func schemaElementFormat(se *parquet.SchemaElement) columnFormat {
	if lt := se.LogicalType; lt != nil {
		switch {
		case lt.TIMESTAMP != nil && lt.TIMESTAMP.Unit != nil:
			switch u := lt.TIMESTAMP.Unit; {
			case u.MILLIS != nil:
				return timestampFormat(time.Millisecond)
			case u.NANOS != nil:
				return timestampFormat(time.Nanosecond)
			default:
				return timestampFormat(time.Microsecond)
			}
		case lt.DATE != nil:
			return columnFormat{kind: dateValue}
		case lt.DECIMAL != nil:
			return decimalFormat(lt.DECIMAL.Scale)
		}
	}

	if ct := se.ConvertedType; ct != nil {
		switch *ct {
		case parquet.ConvertedType_TIMESTAMP_MILLIS:
			return timestampFormat(time.Millisecond)
		case parquet.ConvertedType_TIMESTAMP_MICROS:
			return timestampFormat(time.Microsecond)
		case parquet.ConvertedType_DATE:
			return columnFormat{kind: dateValue}
		case parquet.ConvertedType_DECIMAL:
			if se.Scale != nil {
				return decimalFormat(*se.Scale)
			}
		}
	}
	return columnFormat{}
}

// formatAny renders a value decoded by fraugster/parquet-go. Absent (null)
// values become empty fields.
func (cf columnFormat) formatAny(v interface{}) string {
	switch cf.kind {
	case timestampValue:
		if x, ok := v.(int64); ok {
			return formatTimestamp(x, cf.unit)
		}
	case dateValue:
		if x, ok := v.(int32); ok {
			return formatDate(x)
		}
	case decimalValue:
		switch x := v.(type) {
		case int32:
			return formatDecimal(big.NewInt(int64(x)), cf.scale)
		case int64:
			return formatDecimal(big.NewInt(x), cf.scale)
		case []byte:
			return formatDecimal(bigEndianInt(x), cf.scale)
		}
	}

	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case [12]byte:
		return goparquet.Int96ToTime(x).UTC().Format(timestampLayout)
	default:
		return fmt.Sprint(x)
	}
}

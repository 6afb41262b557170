package convert

import (
	"math/big"
	"strings"
	"time"
)

// Text layouts shared by every adapter. They match what DuckDB and the Arrow
// CSV writer produce, so all adapters write the same bytes for a value.
const (
	timestampLayout = "2006-01-02 15:04:05.999999999"
	dateLayout      = "2006-01-02"
)

type valueKind int

const (
	plainValue valueKind = iota
	timestampValue
	dateValue
	decimalValue
)

// columnFormat describes how the physical values of one column are rendered.
type columnFormat struct {
	kind  valueKind
	unit  time.Duration // timestampValue
	scale int32         // decimalValue
}

func timestampFormat(unit time.Duration) columnFormat {
	return columnFormat{kind: timestampValue, unit: unit}
}

func decimalFormat(scale int32) columnFormat {
	return columnFormat{kind: decimalValue, scale: scale}
}

func formatTimestamp(v int64, unit time.Duration) string {
	var t time.Time
	switch unit {
	case time.Millisecond:
		t = time.UnixMilli(v)
	case time.Nanosecond:
		t = time.Unix(0, v)
	default:
		t = time.UnixMicro(v)
	}
	return t.UTC().Format(timestampLayout)
}

// formatDate renders days since the Unix epoch.
func formatDate(days int32) string {
	return time.Unix(int64(days)*86400, 0).UTC().Format(dateLayout)
}

// formatDecimal renders unscaled * 10^-scale in fixed point with exactly
// scale fraction digits.
func formatDecimal(unscaled *big.Int, scale int32) string {
	digits := new(big.Int).Abs(unscaled).String()
	if scale > 0 {
		if pad := int(scale) + 1 - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		cut := len(digits) - int(scale)
		digits = digits[:cut] + "." + digits[cut:]
	}
	if unscaled.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

// bigEndianInt decodes a big-endian two's complement integer, the encoding
// of byte-array decimals.
func bigEndianInt(b []byte) *big.Int {
	n := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(b))*8))
	}
	return n
}

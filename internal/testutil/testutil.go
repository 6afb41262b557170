// Package testutil provides Parquet fixtures for pqbench tests.
//
// Fixtures mimic the shape of the taxi trip files: a handful of numeric,
// string and optional columns, written with snappy so that every conversion
// adapter can read them.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// Trip is a reduced taxi trip record.
type Trip struct {
	VendorID       int32   `parquet:"VendorID"`
	PickupMicros   int64   `parquet:"tpep_pickup_datetime"`
	PassengerCount int64   `parquet:"passenger_count,optional"`
	TripDistance   float64 `parquet:"trip_distance"`
	StoreAndFwd    string  `parquet:"store_and_fwd_flag"`
	FareAmount     float64 `parquet:"fare_amount"`
}

// SurchargedTrip adds a column that only later months carry, to exercise
// unions by column name.
type SurchargedTrip struct {
	VendorID            int32   `parquet:"VendorID"`
	PickupMicros        int64   `parquet:"tpep_pickup_datetime"`
	PassengerCount      int64   `parquet:"passenger_count,optional"`
	TripDistance        float64 `parquet:"trip_distance"`
	StoreAndFwd         string  `parquet:"store_and_fwd_flag"`
	FareAmount          float64 `parquet:"fare_amount"`
	CongestionSurcharge float64 `parquet:"congestion_surcharge"`
}

// TripColumns are the leaf columns of Trip in file order.
var TripColumns = []string{
	"VendorID",
	"tpep_pickup_datetime",
	"passenger_count",
	"trip_distance",
	"store_and_fwd_flag",
	"fare_amount",
}

// Trips returns n deterministic trips; offset shifts the generated values so
// that fixtures for different months differ.
func Trips(n, offset int) []Trip {
	trips := make([]Trip, n)
	for i := range trips {
		k := i + offset
		flag := "N"
		if k%7 == 0 {
			flag = "Y, delayed"
		}
		trips[i] = Trip{
			VendorID:       int32(k%2 + 1),
			PickupMicros:   1_704_067_200_000_000 + int64(k)*1_000_000,
			PassengerCount: int64(k % 5),
			TripDistance:   float64(k%100) / 10,
			StoreAndFwd:    flag,
			FareAmount:     3.5 + float64(k%40),
		}
	}
	return trips
}

// SurchargedTrips returns n deterministic trips with a surcharge column.
func SurchargedTrips(n, offset int) []SurchargedTrip {
	base := Trips(n, offset)
	trips := make([]SurchargedTrip, n)
	for i, b := range base {
		trips[i] = SurchargedTrip{
			VendorID:            b.VendorID,
			PickupMicros:        b.PickupMicros,
			PassengerCount:      b.PassengerCount,
			TripDistance:        b.TripDistance,
			StoreAndFwd:         b.StoreAndFwd,
			FareAmount:          b.FareAmount,
			CongestionSurcharge: 2.5,
		}
	}
	return trips
}

// WriteRows writes rows to a snappy-compressed Parquet file at path,
// creating parent directories.
func WriteRows[T any](t testing.TB, path string, rows []T) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create directory: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[T](f, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
}

// WriteTrips writes n trips to path.
func WriteTrips(t testing.TB, path string, n int) {
	t.Helper()
	WriteRows(t, path, Trips(n, 0))
}

// WriteSourceMonths writes one source file per month into dir, named the way
// the source fetchers expect. Even months carry the surcharge column.
func WriteSourceMonths(t testing.TB, dir string, year, start, stop, rowsPerMonth int) {
	t.Helper()

	for m := start; m <= stop; m++ {
		path := filepath.Join(dir, fmt.Sprintf("yellow_tripdata_%04d-%02d.parquet", year, m))
		if m%2 == 0 {
			WriteRows(t, path, SurchargedTrips(rowsPerMonth, m*rowsPerMonth))
		} else {
			WriteRows(t, path, Trips(rowsPerMonth, m*rowsPerMonth))
		}
	}
}

// AssertNotExist fails the test if path exists.
func AssertNotExist(t testing.TB, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Fatalf("%s should not exist", path)
	} else if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
}

// Package dataset loads sales tables into immutable in-memory snapshots.
package dataset

import (
	"github.com/shopspring/decimal"
)

// Canonical column names understood by the loader.
const (
	ColumnPrice    = "price"
	ColumnQuantity = "quantity"
)

// Record is one sales transaction.
type Record struct {
	Price    decimal.Decimal
	Quantity int64
}

// Dataset is an ordered, read-only sequence of records. Row order matches the
// source; the underlying slice is never handed out.
type Dataset struct {
	source  string
	records []Record
}

// New builds a dataset from records. The slice is copied.
func New(source string, records []Record) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{source: source, records: cp}
}

// Source returns the path or name the dataset was loaded from.
func (d *Dataset) Source() string { return d.source }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// At returns the i-th record.
func (d *Dataset) At(i int) Record { return d.records[i] }

// Records returns a copy of all records.
func (d *Dataset) Records() []Record {
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// IntColumn returns the named canonical column as integers. Prices are
// truncated toward zero; a price whose whole part exceeds int64 is a
// FormatError.
func (d *Dataset) IntColumn(name string) ([]int64, error) {
	values := make([]int64, len(d.records))
	switch name {
	case ColumnQuantity:
		for i, r := range d.records {
			values[i] = r.Quantity
		}
	case ColumnPrice:
		for i, r := range d.records {
			whole := r.Price.Truncate(0)
			if whole.GreaterThan(maxQuantity) {
				return nil, &FormatError{Path: d.source, Column: ColumnPrice, Err: errOutOfRange}
			}
			values[i] = whole.IntPart()
		}
	default:
		return nil, &SchemaError{Missing: []string{name}}
	}
	return values, nil
}

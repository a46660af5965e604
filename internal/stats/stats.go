// Package stats derives aggregate sales figures from a dataset.
package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"sales-stats/internal/dataset"
)

// DerivedRecord is a sales record extended with its computed revenue.
type DerivedRecord struct {
	dataset.Record
	Revenue decimal.Decimal
}

// Aggregates summarises a dataset.
type Aggregates struct {
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
	AveragePrice  decimal.Decimal
}

// Prepared is a working copy of a dataset with revenue computed per row.
// It never references the source dataset's storage.
type Prepared struct {
	rows     []DerivedRecord
	quantity int64
}

// Prepare computes revenue = price * quantity for every row of ds into a new
// working copy. A total quantity beyond int64 is a FormatError wrapping
// dataset.ErrQuantityOverflow.
func Prepare(ds *dataset.Dataset) (*Prepared, error) {
	if ds == nil {
		return nil, &dataset.TypeError{Reason: "nil dataset"}
	}

	rows := make([]DerivedRecord, ds.Len())
	var quantity int64
	for i := range rows {
		rec := ds.At(i)
		if rec.Quantity > math.MaxInt64-quantity {
			return nil, &dataset.FormatError{
				Path:   ds.Source(),
				Column: dataset.ColumnQuantity,
				Err:    dataset.ErrQuantityOverflow,
			}
		}
		quantity += rec.Quantity
		rows[i] = DerivedRecord{
			Record:  rec,
			Revenue: rec.Price.Mul(decimal.NewFromInt(rec.Quantity)),
		}
	}
	return &Prepared{rows: rows, quantity: quantity}, nil
}

// Aggregate prepares ds and returns its summary.
func Aggregate(ds *dataset.Dataset) (Aggregates, error) {
	p, err := Prepare(ds)
	if err != nil {
		return Aggregates{}, err
	}
	return p.Summary(), nil
}

// Rows returns a copy of the derived rows.
func (p *Prepared) Rows() []DerivedRecord {
	cp := make([]DerivedRecord, len(p.rows))
	copy(cp, p.rows)
	return cp
}

// TotalQuantity sums quantity across all rows.
func (p *Prepared) TotalQuantity() int64 {
	return p.quantity
}

// TotalRevenue sums revenue across all rows.
func (p *Prepared) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p.rows {
		total = total.Add(r.Revenue)
	}
	return total
}

// AveragePrice is revenue per unit sold, weighted by volume. Zero when nothing
// was sold.
func (p *Prepared) AveragePrice() decimal.Decimal {
	qty := p.TotalQuantity()
	if qty <= 0 {
		return decimal.Zero
	}
	return p.TotalRevenue().Div(decimal.NewFromInt(qty))
}

// Summary returns all three aggregates.
func (p *Prepared) Summary() Aggregates {
	return Aggregates{
		TotalQuantity: p.TotalQuantity(),
		TotalRevenue:  p.TotalRevenue(),
		AveragePrice:  p.AveragePrice(),
	}
}

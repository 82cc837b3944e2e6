// Package dataset holds the tabular review input: rows keyed by column
// name, readers for CSV and JSONL, input validation and the derived Month
// and Age columns.
package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
)

// Well-known column names.
const (
	ColReview   = "Cleaned Review"
	ColProduct  = "Product Name"
	ColBrand    = "Brand"
	ColRating   = "Rating"
	ColPlatform = "Platform"
	ColGender   = "Gender"
	ColVerified = "Verified Purchase"
	ColAge      = "Age"
	ColDate     = "Date"
	ColMonth    = "Month"
)

// Row is one review record. A missing key or an empty value is null.
type Row map[string]string

// Get returns the value of col and whether it is non-null.
func (r Row) Get(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Review returns the review text, empty when null.
func (r Row) Review() string {
	return r[ColReview]
}

// Dataset is an ordered set of columns and the rows using them.
type Dataset struct {
	columns  []string
	index    map[string]struct{}
	rows     []Row
	prepared bool
}

// New creates an empty dataset with the given columns. Duplicate and blank
// names are dropped.
func New(columns []string) *Dataset {
	d := &Dataset{index: make(map[string]struct{})}
	for _, c := range columns {
		d.addColumn(c)
	}
	return d
}

func (d *Dataset) addColumn(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := d.index[name]; ok {
		return
	}
	d.index[name] = struct{}{}
	d.columns = append(d.columns, name)
}

// Append adds a row. Values for unknown columns are dropped; whitespace-only
// values become null.
func (d *Dataset) Append(values map[string]string) {
	row := make(Row, len(d.columns))
	for _, c := range d.columns {
		if v := strings.TrimSpace(values[c]); v != "" {
			row[c] = v
		}
	}
	d.rows = append(d.rows, row)
}

// Columns returns the column names in input order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the i-th row.
func (d *Dataset) Row(i int) Row {
	return d.rows[i]
}

// Rows returns the rows. Callers must not modify them.
func (d *Dataset) Rows() []Row {
	return d.rows
}

// Reviews returns the review text of every row in order.
func (d *Dataset) Reviews() []string {
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Review()
	}
	return out
}

// Validate rejects datasets that cannot be analyzed: no review column or
// no rows. Both errors wrap internalerr.ErrInvalidInput.
func (d *Dataset) Validate() error {
	if !d.HasColumn(ColReview) {
		return fmt.Errorf("%w: %w: %q", internalerr.ErrInvalidInput, internalerr.ErrMissingColumn, ColReview)
	}
	if len(d.rows) == 0 {
		return fmt.Errorf("%w: %w", internalerr.ErrInvalidInput, internalerr.ErrEmptyDataset)
	}
	return nil
}

// Prepare derives Month from Date and replaces Age with its bucket label.
// Columns that are absent are left alone. Calling Prepare again is a no-op.
func (d *Dataset) Prepare() {
	if d.prepared {
		return
	}
	d.prepared = true

	if d.HasColumn(ColDate) {
		d.addColumn(ColMonth)
		for _, r := range d.rows {
			delete(r, ColMonth)
			if raw, ok := r.Get(ColDate); ok {
				if month, ok := ParseMonth(raw); ok {
					r[ColMonth] = month
				}
			}
		}
	}

	if d.HasColumn(ColAge) {
		for _, r := range d.rows {
			raw, _ := r.Get(ColAge)
			r[ColAge] = BinAge(raw)
		}
	}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"01-02-2006",
	"2006-01",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// ParseMonth parses a date in one of the common layouts and formats it as
// YYYY-MM. Ambiguous slash dates are read month first.
func ParseMonth(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01"), true
		}
	}
	return "", false
}

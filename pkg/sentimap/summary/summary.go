// Package summary rolls per-row aspect sentiments up into pivoted count
// tables.
//
// Every view starts from the same exploded record set: one record per
// (row, aspect, sentiment). A record whose group key contains a null value
// is left out of that view. Key columns that the dataset does not carry are
// omitted from group keys; a view grouped by an absent dimension is empty.
package summary

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cognicore/sentimap/pkg/sentimap/aspect"
	"github.com/cognicore/sentimap/pkg/sentimap/dataset"
	"github.com/cognicore/sentimap/pkg/sentimap/vocab"
)

// ColFeature and ColSentiment name the aspect and sentiment key columns.
const (
	ColFeature   = "feature"
	ColSentiment = "sentiment"
	ColCount     = "count"
)

// Dimension is one grouping column and the result key it is reported under.
type Dimension struct {
	Key    string
	Column string
}

// Dimensions lists the per-dimension summaries in result order.
var Dimensions = []Dimension{
	{Key: "sentiment_by_brand", Column: dataset.ColBrand},
	{Key: "sentiment_by_product", Column: dataset.ColProduct},
	{Key: "sentiment_by_rating", Column: dataset.ColRating},
	{Key: "sentiment_by_platform", Column: dataset.ColPlatform},
	{Key: "sentiment_by_gender", Column: dataset.ColGender},
	{Key: "sentiment_by_verified", Column: dataset.ColVerified},
	{Key: "sentiment_by_age", Column: dataset.ColAge},
}

// Record is one exploded (row, aspect, sentiment) observation.
type Record struct {
	Row       int
	Aspect    string
	Sentiment vocab.Polarity
}

// Annotated pairs a dataset with the sentiments extracted from its rows.
type Annotated struct {
	Dataset    *dataset.Dataset
	Sentiments []aspect.Sentiments
	records    []Record
}

// Annotate checks that there is one sentiment map per row and explodes
// them into records.
func Annotate(ds *dataset.Dataset, sentiments []aspect.Sentiments) (*Annotated, error) {
	if ds.Len() != len(sentiments) {
		return nil, fmt.Errorf("annotate: %d rows but %d sentiment maps", ds.Len(), len(sentiments))
	}
	a := &Annotated{Dataset: ds, Sentiments: sentiments}
	for i, s := range sentiments {
		names := make([]string, 0, len(s))
		for name := range s {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			a.records = append(a.records, Record{Row: i, Aspect: name, Sentiment: s[name]})
		}
	}
	return a, nil
}

// contextColumns returns Product Name and Month when present, skipping
// exclude.
func (a *Annotated) contextColumns(exclude string) []string {
	var cols []string
	for _, c := range []string{dataset.ColProduct, dataset.ColMonth} {
		if c != exclude && a.Dataset.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// rowKeys reads the key columns of a row; ok is false if any is null.
func (a *Annotated) rowKeys(row int, cols []string) ([]string, bool) {
	r := a.Dataset.Row(row)
	keys := make([]string, len(cols))
	for i, c := range cols {
		v, ok := r.Get(c)
		if !ok {
			return nil, false
		}
		keys[i] = v
	}
	return keys, true
}

// FeatureSummary groups by aspect, Product Name and Month.
func (a *Annotated) FeatureSummary() Table {
	cols := a.contextColumns("")
	b := NewPivotBuilder(append([]string{ColFeature}, cols...)...)
	for _, rec := range a.records {
		keys, ok := a.rowKeys(rec.Row, cols)
		if !ok {
			continue
		}
		b.Add(append([]string{rec.Aspect}, keys...), string(rec.Sentiment))
	}
	return b.Build()
}

// ByDimension groups by column, Product Name (unless column is Product
// Name) and Month. It is empty when the dataset lacks column.
func (a *Annotated) ByDimension(column string) Table {
	cols := append([]string{column}, a.contextColumns(column)...)
	b := NewPivotBuilder(cols...)
	if !a.Dataset.HasColumn(column) {
		return b.Build()
	}
	for _, rec := range a.records {
		keys, ok := a.rowKeys(rec.Row, cols)
		if !ok {
			continue
		}
		b.Add(keys, string(rec.Sentiment))
	}
	return b.Build()
}

// OverallRow is one (group, sentiment) total.
type OverallRow struct {
	Keys      []string
	Sentiment vocab.Polarity
	Count     int
}

// OverallTable holds two rows per group: the POSITIVE total then the
// NEGATIVE total across all aspects.
type OverallTable struct {
	KeyColumns []string
	Rows       []OverallRow
}

// Len returns the number of rows.
func (t OverallTable) Len() int {
	return len(t.Rows)
}

// MarshalJSON renders rows as {<keys...>, sentiment, count} objects.
func (t OverallTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		n := 0
		for j, col := range t.KeyColumns {
			if err := writeField(&buf, &n, col, keyValue(row.Keys[j])); err != nil {
				return nil, err
			}
		}
		if err := writeField(&buf, &n, ColSentiment, string(row.Sentiment)); err != nil {
			return nil, err
		}
		if err := writeField(&buf, &n, ColCount, row.Count); err != nil {
			return nil, err
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// OverallSummary groups every row by Product Name and Month and totals
// positive and negative mentions. Rows without aspects still form groups
// with zero counts. The table is empty when no record exists at all.
func (a *Annotated) OverallSummary() OverallTable {
	cols := a.contextColumns("")
	t := OverallTable{KeyColumns: cols, Rows: []OverallRow{}}
	if len(a.records) == 0 {
		return t
	}

	b := NewPivotBuilder(cols...)
	for i := 0; i < a.Dataset.Len(); i++ {
		keys, ok := a.rowKeys(i, cols)
		if !ok {
			continue
		}
		// Seed the group so rows without mentions still appear.
		b.touch(keys)
		for _, polarity := range a.Sentiments[i] {
			b.Add(keys, string(polarity))
		}
	}

	pivot := b.Build()
	for i, row := range pivot.Rows {
		for _, p := range []vocab.Polarity{vocab.Positive, vocab.Negative} {
			t.Rows = append(t.Rows, OverallRow{
				Keys:      row.Keys,
				Sentiment: p,
				Count:     pivot.Count(i, string(p)),
			})
		}
	}
	return t
}

// Result is the full set of summaries for one analysis.
type Result struct {
	FeatureSummary      Table        `json:"feature_summary"`
	OverallSummary      OverallTable `json:"overall_summary"`
	SentimentByBrand    Table        `json:"sentiment_by_brand"`
	SentimentByProduct  Table        `json:"sentiment_by_product"`
	SentimentByRating   Table        `json:"sentiment_by_rating"`
	SentimentByPlatform Table        `json:"sentiment_by_platform"`
	SentimentByGender   Table        `json:"sentiment_by_gender"`
	SentimentByVerified Table        `json:"sentiment_by_verified"`
	SentimentByAge      Table        `json:"sentiment_by_age"`
}

// Build computes every summary.
func (a *Annotated) Build() *Result {
	r := &Result{
		FeatureSummary: a.FeatureSummary(),
		OverallSummary: a.OverallSummary(),
	}
	for _, d := range Dimensions {
		*r.Dimension(d.Key) = a.ByDimension(d.Column)
	}
	return r
}

// Dimension returns the table reported under a Dimensions key, or nil.
func (r *Result) Dimension(key string) *Table {
	switch key {
	case "sentiment_by_brand":
		return &r.SentimentByBrand
	case "sentiment_by_product":
		return &r.SentimentByProduct
	case "sentiment_by_rating":
		return &r.SentimentByRating
	case "sentiment_by_platform":
		return &r.SentimentByPlatform
	case "sentiment_by_gender":
		return &r.SentimentByGender
	case "sentiment_by_verified":
		return &r.SentimentByVerified
	case "sentiment_by_age":
		return &r.SentimentByAge
	}
	return nil
}

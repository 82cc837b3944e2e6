package summary

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Table is a pivoted count table: one row per group key, one integer column
// per sentiment value observed anywhere in the table.
type Table struct {
	KeyColumns       []string
	SentimentColumns []string
	Rows             []TableRow
}

// TableRow is one group key with its per-sentiment counts. Keys align with
// Table.KeyColumns and Counts with Table.SentimentColumns.
type TableRow struct {
	Keys   []string
	Counts []int
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Count returns the count in row i for sentiment, zero when the column is
// absent.
func (t Table) Count(i int, sentiment string) int {
	for j, c := range t.SentimentColumns {
		if c == sentiment {
			return t.Rows[i].Counts[j]
		}
	}
	return 0
}

// Key returns the value of key column col in row i.
func (t Table) Key(i int, col string) string {
	for j, c := range t.KeyColumns {
		if c == col {
			return t.Rows[i].Keys[j]
		}
	}
	return ""
}

// MarshalJSON renders the table as an array of flat objects with key
// columns first, then sentiment columns, in table order. Key values are
// typed by keyValue.
func (t Table) MarshalJSON() ([]byte, error) {
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
		for j, col := range t.SentimentColumns {
			if err := writeField(&buf, &n, col, row.Counts[j]); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// keyValue types a group-key cell for JSON output: numeric literals become
// numbers and true/false become booleans, as a typed CSV reader would load
// them. Everything else stays a string.
func keyValue(s string) any {
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && json.Valid([]byte(s)) {
		return json.Number(s)
	}
	return s
}

func writeField(buf *bytes.Buffer, n *int, name string, value any) error {
	if *n > 0 {
		buf.WriteByte(',')
	}
	*n++
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// PivotBuilder accumulates (group key, sentiment) observations and
// flattens them into a zero-filled Table.
type PivotBuilder struct {
	keyColumns []string
	groups     map[string]*pivotGroup
	sentiments map[string]struct{}
}

type pivotGroup struct {
	keys   []string
	counts map[string]int
}

// NewPivotBuilder creates a builder grouping by the given key columns.
func NewPivotBuilder(keyColumns ...string) *PivotBuilder {
	return &PivotBuilder{
		keyColumns: append([]string(nil), keyColumns...),
		groups:     make(map[string]*pivotGroup),
		sentiments: make(map[string]struct{}),
	}
}

// Add counts one observation. keys must align with the key columns; a
// mismatched key is ignored.
func (b *PivotBuilder) Add(keys []string, sentiment string) {
	if len(keys) != len(b.keyColumns) {
		return
	}
	b.touch(keys).counts[sentiment]++
	b.sentiments[sentiment] = struct{}{}
}

// Build returns the pivoted table. Rows are sorted by key (numbers compare
// numerically), sentiment columns alphabetically, and every row has a
// count for every column.
func (b *PivotBuilder) Build() Table {
	t := Table{
		KeyColumns:       append([]string(nil), b.keyColumns...),
		SentimentColumns: make([]string, 0, len(b.sentiments)),
		Rows:             make([]TableRow, 0, len(b.groups)),
	}
	for s := range b.sentiments {
		t.SentimentColumns = append(t.SentimentColumns, s)
	}
	sort.Strings(t.SentimentColumns)

	groups := make([]*pivotGroup, 0, len(b.groups))
	for _, g := range b.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return lessKeys(groups[i].keys, groups[j].keys)
	})

	for _, g := range groups {
		row := TableRow{Keys: g.keys, Counts: make([]int, len(t.SentimentColumns))}
		for j, s := range t.SentimentColumns {
			row.Counts[j] = g.counts[s]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func lessKeys(a, b []string) bool {
	for i := range a {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c < 0
		}
	}
	return false
}

// compareValues orders numbers before text and numbers by value.
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// touch returns the group for keys, registering it without counting an
// observation. keys must align with the key columns.
func (b *PivotBuilder) touch(keys []string) *pivotGroup {
	id := strings.Join(keys, "\x1f")
	g, ok := b.groups[id]
	if !ok {
		g = &pivotGroup{keys: append([]string(nil), keys...), counts: make(map[string]int)}
		b.groups[id] = g
	}
	return g
}

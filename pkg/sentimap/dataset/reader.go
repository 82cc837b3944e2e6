package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
)

const utf8BOM = "\ufeff"

// ReadCSV reads a CSV table whose first record is the header. Short rows
// are padded with nulls and surplus cells are ignored.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: csv has no header row", internalerr.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", internalerr.ErrInvalidInput, err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	d := New(headers)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", internalerr.ErrInvalidInput, err)
		}
		if isBlankRecord(record) {
			continue
		}
		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i >= len(record) {
				break
			}
			// First occurrence wins for repeated header names.
			if _, seen := values[h]; !seen {
				values[h] = record[i]
			}
		}
		d.Append(values)
	}

	return d, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadJSONL reads one JSON object per line. Columns are the union of keys
// in first-seen order. Malformed lines are skipped with a warning.
func ReadJSONL(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		columns []string
		seen    = make(map[string]struct{})
		records []map[string]string
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			slog.Warn("[Dataset] skipping malformed JSON line", slog.Int("line", lineNo), slog.Any("error", err))
			continue
		}

		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		// Go maps lose key order; recover it from the line itself.
		keys = orderKeys(line, keys)

		values := make(map[string]string, len(obj))
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
			values[k] = scalarString(obj[k])
		}
		records = append(records, values)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read jsonl: %v", internalerr.ErrInvalidInput, err)
	}

	d := New(columns)
	for _, values := range records {
		d.Append(values)
	}
	return d, nil
}

// orderKeys sorts keys by the position of their first quoted occurrence in
// the raw object text.
func orderKeys(raw string, keys []string) []string {
	pos := make(map[string]int, len(keys))
	for _, k := range keys {
		quoted, _ := json.Marshal(k)
		idx := strings.Index(raw, string(quoted))
		if idx < 0 {
			idx = len(raw)
		}
		pos[k] = idx
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && pos[keys[j]] < pos[keys[j-1]]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// scalarString renders a JSON value as a cell. Numbers keep their literal
// text, null becomes the empty string and composites stay JSON.
func scalarString(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	switch {
	case text == "null" || text == "":
		return ""
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return text
	default:
		return text
	}
}

// ReadFile reads a CSV or JSONL file, chosen by extension (.jsonl, .ndjson
// and .json are JSONL; everything else is CSV).
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var d *Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		d, err = ReadJSONL(f)
	default:
		d, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// IsInputError reports whether err is an input rejection.
func IsInputError(err error) bool {
	return errors.Is(err, internalerr.ErrInvalidInput)
}

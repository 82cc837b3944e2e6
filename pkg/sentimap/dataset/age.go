package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Age bucket labels.
const (
	AgeUnder20 = "<20"
	Age20s     = "20-29"
	Age30s     = "30-39"
	Age40s     = "40-49"
	Age50Plus  = "50+"
	AgeUnknown = "Unknown"
)

// BinAge maps a raw age to its bucket. Integers, floats (truncated toward
// zero) and numeric strings are accepted; anything else is AgeUnknown.
func BinAge(v any) string {
	age, ok := toInt(v)
	if !ok {
		return AgeUnknown
	}
	switch {
	case age < 20:
		return AgeUnder20
	case age < 30:
		return Age20s
	case age < 40:
		return Age30s
	case age < 50:
		return Age40s
	default:
		return Age50Plus
	}
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		return parseInt(x)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// CSV readers that infer types turn an integer column with blanks into
	// floats, so "34.0" must still bin as 34.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToInt(f)
	}
	return 0, false
}

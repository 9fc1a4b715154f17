package models

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"crediflow/internal/common/validation"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
)

// normalize returns a copy of raw in which every declared field holding a
// losslessly convertible value is replaced by its canonical Go type. Values
// that cannot be converted are left untouched so the schema reports them,
// except whole numbers outside the int64 range, which the schema would
// accept and are reported here instead.
func normalize(raw map[string]interface{}, kinds map[string]fieldKind) (map[string]interface{}, []validation.ValidationError) {
	out := make(map[string]interface{}, len(raw))
	var rangeErrs []validation.ValidationError
	for k, v := range raw {
		kind, declared := kinds[k]
		if !declared || v == nil {
			out[k] = v
			continue
		}
		switch kind {
		case kindInt:
			if n, ok := coerceInt(v); ok {
				v = n
			} else if isWholeNumber(v) {
				rangeErrs = append(rangeErrs, validation.ValidationError{
					Field:   k,
					Message: "Must fit in a signed 64-bit integer",
					Code:    "out_of_range",
				})
			}
		case kindBool:
			if b, ok := coerceBool(v); ok {
				v = b
			}
		}
		out[k] = v
	}
	sort.Slice(rangeErrs, func(i, j int) bool { return rangeErrs[i].Field < rangeErrs[j].Field })
	return out, rangeErrs
}

func coerceInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return uintToInt(uint64(n))
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return uintToInt(n)
	case float32:
		return wholeFloat(float64(n))
	case float64:
		return wholeFloat(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return wholeFloat(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func isWholeNumber(v interface{}) bool {
	switch n := v.(type) {
	case uint, uint64:
		return true
	case float32:
		f := float64(n)
		return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
	case float64:
		return !math.IsInf(n, 0) && !math.IsNaN(n) && n == math.Trunc(n)
	case json.Number:
		f, err := n.Float64()
		return err == nil && f == math.Trunc(f)
	}
	return false
}

func uintToInt(n uint64) (int64, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return int64(n), true
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func coerceBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on", "t", "y":
			return true, true
		case "false", "0", "no", "off", "f", "n":
			return false, true
		}
	default:
		if n, ok := coerceInt(v); ok && (n == 0 || n == 1) {
			return n == 1, true
		}
	}
	return false, false
}

func intField(m map[string]interface{}, key string, def int64) int64 {
	if n, ok := m[key].(int64); ok {
		return n
	}
	return def
}

func boolField(m map[string]interface{}, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

package domain

import (
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
)

// Warehouse rows arrive as loosely typed JSON: numbers are usually strings,
// sometimes float64, and nested lists are either JSON text or already decoded.
// The helpers below never fail; a value that cannot be coerced yields the
// supplied default.

// ToFloat coerces v to a finite float64. nil, "", unparsable text and
// non-finite results all yield def.
func ToFloat(v any, def float64) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return def
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// ToInt coerces v through ToFloat and truncates toward zero, so "12.7" is 12.
func ToInt(v any, def int64) int64 {
	if i, ok := v.(int64); ok {
		return i
	}
	const sentinel = math.MaxFloat64
	f := ToFloat(v, sentinel)
	if f == sentinel || f >= math.MaxInt64 || f < math.MinInt64 {
		return def
	}
	return int64(f)
}

// ToBool accepts native booleans, the strings true/1/yes (any case) and
// non-zero numbers.
func ToBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
		return false
	default:
		return ToFloat(v, 0) != 0
	}
}

// ToString renders v as text. nil becomes "".
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		b, err := gojson.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// DecodeJSONList decodes a list-of-objects sub-field. v may be JSON text or an
// already decoded []any. Non-object items are skipped. ok is false when v is
// neither, or the text is not a JSON array; items is then an empty slice.
func DecodeJSONList(v any) (items []map[string]any, ok bool) {
	var raw []any
	switch t := v.(type) {
	case string:
		if err := gojson.Unmarshal([]byte(t), &raw); err != nil {
			return []map[string]any{}, false
		}
	case []any:
		raw = t
	case []map[string]any:
		return t, true
	default:
		return []map[string]any{}, false
	}

	items = make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, isObj := item.(map[string]any); isObj {
			items = append(items, m)
		}
	}
	return items, true
}

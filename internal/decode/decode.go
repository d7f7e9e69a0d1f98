// Package decode provides total, non-panicking narrowing helpers over untyped
// JSON values. Every helper reports absence with a false second return value.
package decode

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Object narrows v to a JSON object.
func Object(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, false
	}
	return obj, true
}

// Array narrows v to a JSON array.
func Array(v any) ([]any, bool) {
	arr, ok := v.([]any)
	if !ok || arr == nil {
		return nil, false
	}
	return arr, true
}

// String returns the trimmed text form of v. Empty results are absent.
// Numbers are rendered in their shortest decimal form so numeric ids survive.
func String(v any) (string, bool) {
	var s string
	switch typed := v.(type) {
	case string:
		s = typed
	case json.Number:
		s = typed.String()
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return "", false
		}
		s = strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		s = strconv.Itoa(typed)
	case int64:
		s = strconv.FormatInt(typed, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// StringPtr is String returning nil when absent.
func StringPtr(v any) *string {
	s, ok := String(v)
	if !ok {
		return nil
	}
	return &s
}

// Number returns v as a finite float64.
func Number(v any) (float64, bool) {
	var f float64
	switch typed := v.(type) {
	case float64:
		f = typed
	case float32:
		f = float64(typed)
	case int:
		f = float64(typed)
	case int32:
		f = float64(typed)
	case int64:
		f = float64(typed)
	case uint:
		f = float64(typed)
	case uint64:
		f = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// maxExactInt is the largest integer a JSON number carries without rounding.
const maxExactInt = 1 << 53

// Int returns v as a non-negative integer. Fractional values and values
// beyond the exactly representable range are absent.
func Int(v any) (int, bool) {
	f, ok := Number(v)
	if !ok || f < 0 || f != math.Trunc(f) || f > maxExactInt || f > float64(math.MaxInt) {
		return 0, false
	}
	return int(f), true
}

// Bool narrows booleans and their common textual and numeric spellings.
func Bool(v any) (bool, bool) {
	switch typed := v.(type) {
	case bool:
		return typed, true
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
		return false, false
	}
	f, ok := Number(v)
	if !ok {
		return false, false
	}
	switch f {
	case 1:
		return true, true
	case 0:
		return false, true
	}
	return false, false
}

// BoolOr returns the decoded boolean or fallback when absent.
func BoolOr(v any, fallback bool) bool {
	b, ok := Bool(v)
	if !ok {
		return fallback
	}
	return b
}

// Enum upper-cases v and accepts it only when it is in allowed.
func Enum[T ~string](v any, allowed ...T) (T, bool) {
	s, ok := String(v)
	if !ok {
		return "", false
	}
	s = strings.ToUpper(s)
	for _, candidate := range allowed {
		if string(candidate) == s {
			return candidate, true
		}
	}
	return "", false
}

// EnumPtr is Enum returning nil when absent.
func EnumPtr[T ~string](v any, allowed ...T) *T {
	e, ok := Enum(v, allowed...)
	if !ok {
		return nil
	}
	return &e
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time accepts RFC3339-like strings and epoch milliseconds.
func Time(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	ms, ok := Number(v)
	if !ok || ms <= 0 || ms != math.Trunc(ms) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// TimePtr is Time returning nil when absent.
func TimePtr(v any) *time.Time {
	t, ok := Time(v)
	if !ok {
		return nil
	}
	return &t
}

// Path walks dotted keys through nested objects.
func Path(v any, path string) (any, bool) {
	current := v
	for _, key := range strings.Split(path, ".") {
		obj, ok := Object(current)
		if !ok {
			return nil, false
		}
		next, ok := obj[key]
		if !ok || next == nil {
			return nil, false
		}
		current = next
	}
	return current, true
}

// FirstString returns the first non-empty string found at paths, in order.
func FirstString(v any, paths ...string) (string, bool) {
	for _, path := range paths {
		raw, ok := Path(v, path)
		if !ok {
			continue
		}
		if s, ok := String(raw); ok {
			return s, true
		}
	}
	return "", false
}

// First returns the first present value found at paths, in order.
func First(v any, paths ...string) (any, bool) {
	for _, path := range paths {
		if raw, ok := Path(v, path); ok {
			return raw, true
		}
	}
	return nil, false
}

package wiki

import (
	"fmt"
	"strconv"
)

// Type assertion helpers for decoded JSON (map[string]any / []any / float64)

func getString(v any) string {
	s, _ := v.(string)
	return s
}

func getInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func getFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}

func getBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func getMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func getSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// getNestedMap walks keys through nested objects; nil if any step is missing
func getNestedMap(m map[string]any, keys ...string) map[string]any {
	cur := m
	for _, k := range keys {
		cur = getMap(cur[k])
		if cur == nil {
			return nil
		}
	}
	return cur
}

func getNestedString(m map[string]any, keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	parent := getNestedMap(m, keys[:len(keys)-1]...)
	if parent == nil {
		return ""
	}
	return getString(parent[keys[len(keys)-1]])
}

// formValue renders a scalar JSON value the way it is echoed back in a
// form field (continuation values are mostly strings, sometimes numbers).
func formValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return ""
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

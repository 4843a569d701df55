package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Evaluate resolves path against decoded JSON data using the same subset
// Translate accepts. found is false when the path does not resolve, which
// mirrors the accessor yielding undefined in the sandbox.
func Evaluate(doc any, path string) (value any, found bool, err error) {
	rest, err := relative(path)
	if err != nil {
		return nil, false, err
	}

	current := doc
	for _, seg := range splitPathSegments(rest) {
		name, suffix := splitSuffix(seg)
		if err := checkSuffix(suffix); err != nil {
			return nil, false, fmt.Errorf("%w in %q", err, path)
		}
		if name != "" {
			var ok bool
			if current, ok = getField(current, name); !ok {
				return nil, false, nil
			}
		}
		for suffix != "" {
			m := bracket.FindString(suffix)
			suffix = suffix[len(m):]
			inner := m[1 : len(m)-1]

			var ok bool
			if idx, convErr := strconv.Atoi(inner); convErr == nil {
				current, ok = getIndex(current, idx)
			} else {
				current, ok = getField(current, inner[1:len(inner)-1])
			}
			if !ok {
				return nil, false, nil
			}
		}
	}
	return current, true, nil
}

// EvaluateJSON decodes body and evaluates path against it.
func EvaluateJSON(body []byte, path string) (any, bool, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false, fmt.Errorf("body is not valid JSON: %w", err)
	}
	return Evaluate(doc, path)
}

func getField(doc any, field string) (any, bool) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[field]
	return val, ok
}

// getIndex follows JavaScript semantics: negative indexes do not resolve.
func getIndex(doc any, idx int) (any, bool) {
	arr, ok := doc.([]any)
	if !ok || idx < 0 || idx >= len(arr) {
		return nil, false
	}
	return arr[idx], true
}

// Describe renders a resolved value for previews.
func Describe(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return strings.TrimSpace(string(b))
	}
}

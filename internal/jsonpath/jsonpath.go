// Package jsonpath translates the simple JSONPath expressions SoapUI uses in
// assertions and property transfers into JavaScript property accessors, and
// evaluates the same subset against decoded JSON for previews.
//
// Supported: $.field, $.field.nested, $.array[0], $.array[0].field,
// $['odd name'], $[0]. Filters, wildcards and recursive descent have no
// accessor form and are rejected with ErrUnsupported.
package jsonpath

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/karthiktools/convert2postman/internal/script"
)

// ErrUnsupported marks paths that cannot be expressed as a property accessor.
var ErrUnsupported = errors.New("unsupported JSONPath")

var identifier = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Translate converts path into an accessor chain to append to a JavaScript
// expression: "$.items[0].id" becomes ".items[0].id" and "$.a-b" becomes
// `["a-b"]`. The root path "$" translates to "".
func Translate(path string) (string, error) {
	rest, err := relative(path)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range splitPathSegments(rest) {
		if seg == "" {
			return "", fmt.Errorf("%w: empty segment in %q", ErrUnsupported, path)
		}
		name, suffix := splitSuffix(seg)
		if err := checkSuffix(suffix); err != nil {
			return "", fmt.Errorf("%w in %q", err, path)
		}
		switch {
		case name == "":
		case identifier.MatchString(name):
			b.WriteString("." + name)
		default:
			b.WriteString("[" + script.Quote(name) + "]")
		}
		b.WriteString(suffix)
	}
	return b.String(), nil
}

// relative validates path and strips the root marker and leading dot.
func relative(path string) (string, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return "", fmt.Errorf("%w: empty path", ErrUnsupported)
	case strings.Contains(path, ".."):
		return "", fmt.Errorf("%w: recursive descent in %q", ErrUnsupported, path)
	case strings.ContainsAny(path, "*@?"):
		return "", fmt.Errorf("%w: wildcard or filter in %q", ErrUnsupported, path)
	}

	rest := path
	if strings.HasPrefix(rest, "$") {
		rest = rest[1:]
	}
	return strings.TrimPrefix(rest, "."), nil
}

// splitSuffix separates "items[0][1]" into "items" and "[0][1]".
func splitSuffix(seg string) (name, suffix string) {
	if idx := strings.Index(seg, "["); idx >= 0 {
		return seg[:idx], seg[idx:]
	}
	return seg, ""
}

var bracket = regexp.MustCompile(`^\[(?:-?\d+|'[^']*'|"[^"]*")\]`)

// checkSuffix accepts a run of numeric indexes and quoted member names.
func checkSuffix(suffix string) error {
	for suffix != "" {
		m := bracket.FindString(suffix)
		if m == "" {
			return fmt.Errorf("%w: unsupported bracket expression %q", ErrUnsupported, suffix)
		}
		suffix = suffix[len(m):]
	}
	return nil
}

// splitPathSegments splits a path like "field.nested[0].name" into segments.
// Dots inside brackets do not split.
func splitPathSegments(path string) []string {
	if path == "" {
		return nil
	}
	var segments []string
	var current strings.Builder
	depth := 0

	for _, ch := range path {
		switch ch {
		case '[':
			depth++
			current.WriteRune(ch)
		case ']':
			depth--
			current.WriteRune(ch)
		case '.':
			if depth == 0 {
				segments = append(segments, current.String())
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	return append(segments, current.String())
}

package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Template is a compiled replacement template. Supported syntax:
//
//	$N, ${N}        value of capture group N (empty when the group did not participate)
//	${N:-default}   value of group N if it participated, otherwise the literal default
//	$$              a literal dollar sign
//
// Group values are copied into the output as-is and never re-read as
// template text, so a value containing "$1" stays "$1".
type Template struct {
	raw      string
	segments []segment
	maxGroup int
}

type segment struct {
	literal  string
	group    int // -1 for literal segments
	fallback string
	hasDef   bool
}

// CompileTemplate parses a replacement template.
func CompileTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch != '$' {
			lit.WriteByte(ch)
			continue
		}
		if i+1 >= len(raw) {
			return nil, fmt.Errorf("template %q: dangling $ at end", raw)
		}
		next := raw[i+1]
		switch {
		case next == '$':
			lit.WriteByte('$')
			i++

		case isDigit(next):
			j := i + 1
			for j < len(raw) && isDigit(raw[j]) {
				j++
			}
			n, _ := strconv.Atoi(raw[i+1 : j])
			flush()
			t.addGroup(segment{group: n})
			i = j - 1

		case next == '{':
			end := strings.IndexByte(raw[i+2:], '}')
			if end == -1 {
				return nil, fmt.Errorf("template %q: unterminated ${ at position %d", raw, i)
			}
			expr := raw[i+2 : i+2+end]
			seg, err := parseBraced(expr)
			if err != nil {
				return nil, fmt.Errorf("template %q: %w", raw, err)
			}
			flush()
			t.addGroup(seg)
			i = i + 2 + end

		default:
			return nil, fmt.Errorf("template %q: unexpected %q after $ at position %d (use $$ for a literal $)", raw, next, i)
		}
	}
	flush()
	return t, nil
}

func (t *Template) addGroup(seg segment) {
	t.segments = append(t.segments, seg)
	if seg.group > t.maxGroup {
		t.maxGroup = seg.group
	}
}

// parseBraced parses the inside of ${...}: either "N" or "N:-default".
func parseBraced(expr string) (segment, error) {
	num, def, hasDef := strings.Cut(expr, ":-")
	if num == "" {
		return segment{}, fmt.Errorf("empty group reference ${%s}", expr)
	}
	for i := 0; i < len(num); i++ {
		if !isDigit(num[i]) {
			return segment{}, fmt.Errorf("invalid group reference ${%s}", expr)
		}
	}
	n, _ := strconv.Atoi(num)
	return segment{group: n, fallback: def, hasDef: hasDef}, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}

// MaxGroup returns the highest group number the template references.
func (t *Template) MaxGroup() int {
	return t.maxGroup
}

// expand appends the template to dst for one match. src is the matched-against
// text and idx the submatch index pairs for the match.
func (t *Template) expand(dst *strings.Builder, src string, idx []int) {
	for _, seg := range t.segments {
		if seg.group < 0 {
			dst.WriteString(seg.literal)
			continue
		}
		start, end := -1, -1
		if 2*seg.group+1 < len(idx) {
			start, end = idx[2*seg.group], idx[2*seg.group+1]
		}
		if start < 0 {
			// group did not participate
			if seg.hasDef {
				dst.WriteString(seg.fallback)
			}
			continue
		}
		dst.WriteString(src[start:end])
	}
}

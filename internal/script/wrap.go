package script

import (
	"strings"

	"github.com/karthiktools/convert2postman/internal/naming"
)

const indentUnit = "    "

// asyncMarkers are the words that make a fragment's wrapper async. They are
// looked for in the original Groovy text, not the rewritten body.
var asyncMarkers = []string{"sleep", "wait", "delay", "setTimeout", "Promise", "async", "await"}

func needsAsync(original string) bool {
	for _, m := range asyncMarkers {
		if strings.Contains(original, m) {
			return true
		}
	}
	return false
}

// Indent prefixes every non-empty line with depth indentation units. Lines
// that continue a multi-line template literal are left as they are.
func Indent(lines []string, depth int) []string {
	prefix := strings.Repeat(indentUnit, depth)
	inLiteral := continuations(lines)
	out := make([]string, len(lines))
	for i, l := range lines {
		if inLiteral[i] {
			out[i] = l
			continue
		}
		if strings.TrimSpace(l) == "" {
			out[i] = ""
			continue
		}
		out[i] = prefix + l
	}
	return out
}

// TestBlock wraps body in a named pm.test call.
func TestBlock(name string, body []string, async bool) []string {
	out := []string{"pm.test(" + Quote(name) + ", " + function(async) + " {"}
	out = append(out, Indent(body, 1)...)
	return append(out, "});")
}

func function(async bool) string {
	if async {
		return "async function ()"
	}
	return "function ()"
}

// LibraryIdent is the object name a library fragment is published under.
func LibraryIdent(name string) string {
	if id := naming.Identifier(name); id != "" {
		return id
	}
	return "Library"
}

// wrap applies the role's wrapper to the converted body lines.
func wrap(f Fragment, body []string, async bool) []string {
	switch f.Role {
	case RoleTest:
		name := f.Name
		if strings.TrimSpace(name) == "" {
			name = "Converted script"
		}
		return TestBlock(name, body, async)

	case RolePreRequest:
		out := []string{"(" + function(async) + " {"}
		out = append(out, Indent(body, 1)...)
		return append(out, "})();")

	case RoleLibrary:
		ident := LibraryIdent(f.Name)
		out := []string{
			"const " + ident + " = {",
			indentUnit + "init: " + function(async) + " {",
		}
		out = append(out, Indent(body, 2)...)
		return append(out,
			indentUnit+"}",
			"};",
			ident+".init();",
		)

	default:
		return body
	}
}

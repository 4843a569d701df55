package convert

import (
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/transfer"
)

// ExpandProperties rewrites SoapUI property expansions in request text into
// Postman variable references:
//   - ${#Project#name}, ${#TestSuite#name}, ${#TestCase#name} and the other
//     scoped forms become {{name}}
//   - ${Step#prop} becomes {{Step_prop}}, and ${Step#Response} the stored
//     response of that step
//   - ${name} becomes {{name}}
//
// Inline Groovy (${=...}) and expansions with a path into the property are
// left as written and reported.
func ExpandProperties(s string) (string, []diag.Warning) {
	var (
		b        strings.Builder
		warnings []diag.Warning
		rest     = s
	)
	for {
		start := strings.Index(rest, "${")
		if start == -1 {
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end == -1 {
			break
		}
		end += start + 1

		expr := rest[start+2 : end-1]
		b.WriteString(rest[:start])
		if ref, ok := resolveExpansion(expr); ok {
			b.WriteString("{{" + ref + "}}")
		} else {
			b.WriteString(rest[start:end])
			warnings = append(warnings, diag.Unsupported("property expansion", "${%s} has no Postman variable form; review it manually", expr))
		}
		rest = rest[end:]
	}
	b.WriteString(rest)
	return b.String(), warnings
}

// resolveExpansion maps the text between ${ and } onto a variable name.
func resolveExpansion(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.HasPrefix(expr, "=") {
		return "", false
	}

	if strings.HasPrefix(expr, "#") {
		// #Scope#name
		parts := strings.SplitN(expr[1:], "#", 2)
		if len(parts) != 2 || parts[1] == "" || strings.Contains(parts[1], "#") {
			return "", false
		}
		return parts[1], true
	}

	parts := strings.Split(expr, "#")
	switch len(parts) {
	case 1:
		return expr, true
	case 2:
		step, prop := parts[0], parts[1]
		if step == "" || prop == "" {
			return "", false
		}
		if strings.EqualFold(prop, "Response") {
			return transfer.ResponseKey(step), true
		}
		return transfer.PropertyKey(step, prop), true
	default:
		return "", false
	}
}

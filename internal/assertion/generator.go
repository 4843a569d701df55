package assertion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/jsonpath"
	"github.com/karthiktools/convert2postman/internal/script"
)

// ReviewMarker precedes every mechanically converted script assertion.
const ReviewMarker = "// Converted automatically from a Groovy script assertion; review before use."

// Generator converts assertion records. Inline scripts go through the
// shared rewriter.
type Generator struct {
	rewriter *script.Rewriter
}

// NewGenerator returns a Generator that rewrites inline scripts with rw.
// A nil rw uses a rewriter over the default catalog.
func NewGenerator(rw *script.Rewriter) *Generator {
	if rw == nil {
		rw = script.New(nil, script.Options{PathAccessor: jsonpath.Translate})
	}
	return &Generator{rewriter: rw}
}

// Convert renders one assertion. It never fails: records missing the data
// their kind needs produce comment lines and a MissingField warning.
func (g *Generator) Convert(rec Record) script.Result {
	switch rec.Kind {
	case StatusCodes:
		return statusCodes(rec, false)
	case InvalidStatusCodes:
		return statusCodes(rec, true)
	case PathMatch, PathExists:
		return path(rec)
	case Contains:
		return contains(rec, false)
	case NotContains:
		return contains(rec, true)
	case InlineScript:
		return g.inline(rec)
	case ResponseSLA:
		return sla(rec)
	default:
		return unsupported(rec)
	}
}

func test(rec Record, body ...string) script.Result {
	return script.Result{Lines: script.TestBlock(rec.Label(), body, false)}
}

func missing(rec Record, field, why string) script.Result {
	return script.Result{
		Lines: []string{
			fmt.Sprintf("// %s assertion %s skipped: %s.", rec.Kind, script.Quote(script.Comment(rec.Label())), why),
		},
		Warnings: []diag.Warning{diag.Missing(field, "%s assertion %q: %s", rec.Kind, rec.Label(), why)},
	}
}

func codeList(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func statusCodes(rec Record, invalid bool) script.Result {
	codes := rec.Codes
	if invalid {
		if len(codes) == 0 {
			return missing(rec, "codes", "no status codes listed")
		}
		return test(rec, fmt.Sprintf("pm.expect(pm.response.code).to.not.be.oneOf(%s);", codeList(codes)))
	}
	if len(codes) == 0 {
		codes = []int{200}
	}
	return test(rec, fmt.Sprintf("pm.expect(pm.response.code).to.be.oneOf(%s);", codeList(codes)))
}

func path(rec Record) script.Result {
	if strings.TrimSpace(rec.Path) == "" {
		return missing(rec, "path", "no JSONPath expression")
	}

	accessor, err := jsonpath.Translate(rec.Path)
	if err != nil {
		return script.Result{
			Lines: []string{
				fmt.Sprintf("// UNSUPPORTED (JSONPath): assertion %s uses %s, which has no property accessor form.",
					script.Quote(script.Comment(rec.Label())), script.Comment(rec.Path)),
				"// Manual action: rewrite the check against pm.response.json() with array helpers such as filter or find.",
			},
			Warnings: []diag.Warning{diag.Unsupported("JSONPath", "assertion %q: %v", rec.Label(), err)},
		}
	}

	body := []string{
		"const jsonData = pm.response.json();",
		"const value = jsonData" + accessor + ";",
	}
	switch {
	case rec.Kind == PathExists && strings.EqualFold(strings.TrimSpace(rec.Expected), "false"):
		body = append(body, fmt.Sprintf("pm.expect(value, %s).to.be.undefined;", script.Quote(rec.Path)))
	case rec.Kind == PathExists:
		body = append(body, fmt.Sprintf("pm.expect(value, %s).to.not.be.undefined;", script.Quote(rec.Path)))
	default:
		body = append(body, fmt.Sprintf("pm.expect(value, %s).to.not.be.undefined;", script.Quote(rec.Path)))
		if rec.Expected != "" {
			body = append(body, fmt.Sprintf("pm.expect(String(value)).to.eql(%s);", script.Quote(rec.Expected)))
		}
	}
	return test(rec, body...)
}

func contains(rec Record, negate bool) script.Result {
	if rec.Token == "" {
		return missing(rec, "token", "no token to look for")
	}
	subject, token := "pm.response.text()", rec.Token
	if rec.IgnoreCase {
		subject, token = "pm.response.text().toLowerCase()", strings.ToLower(token)
	}
	verb := "to.include"
	if negate {
		verb = "to.not.include"
	}
	return test(rec, fmt.Sprintf("pm.expect(%s).%s(%s);", subject, verb, script.Quote(token)))
}

func (g *Generator) inline(rec Record) script.Result {
	if strings.TrimSpace(rec.Script) == "" {
		return missing(rec, "script", "empty script")
	}
	res := g.rewriter.Convert(script.Fragment{
		Name: rec.Label(),
		Text: rec.Script,
		Role: script.RoleAssertionInline,
	})
	lines := append([]string{ReviewMarker}, script.TestBlock(rec.Label(), res.Lines, res.Async)...)
	return script.Result{Lines: lines, Warnings: res.Warnings, Async: res.Async}
}

func sla(rec Record) script.Result {
	if rec.SLA <= 0 {
		return missing(rec, "sla", "no response time limit")
	}
	return test(rec, fmt.Sprintf("pm.expect(pm.response.responseTime).to.be.at.most(%d);", rec.SLA))
}

func unsupported(rec Record) script.Result {
	kind := rec.RawType
	if kind == "" {
		kind = rec.Kind.String()
	}
	return script.Result{
		Lines: []string{
			fmt.Sprintf("// UNSUPPORTED (assertion): %s is a SoapUI %s assertion with no Postman equivalent.",
				script.Quote(script.Comment(rec.Label())), script.Comment(kind)),
			"// Manual action: re-create the check with pm.test and pm.expect.",
		},
		Warnings: []diag.Warning{diag.Unsupported("assertion", "%s (%s) has no Postman equivalent", rec.Label(), kind)},
	}
}

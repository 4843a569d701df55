package transfer

import (
	"fmt"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/jsonpath"
	"github.com/karthiktools/convert2postman/internal/script"
)

// Generator converts property transfers.
type Generator struct{}

// NewGenerator returns a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// PersistResponse is the statement every converted request runs in its test
// event so later transfers can read its response.
func PersistResponse(step string) []string {
	return []string{
		fmt.Sprintf("pm.collectionVariables.set(%s, pm.response.text());", script.Quote(ResponseKey(step))),
	}
}

// Convert renders one transfer. Structured-query transfers become a guarded
// block that never throws; anything else becomes comments for manual
// completion.
func (g *Generator) Convert(rec Record) script.Result {
	switch {
	case strings.TrimSpace(rec.SourceName) == "":
		return missing(rec, "source", "no source step")
	case strings.TrimSpace(rec.targetKey()) == "":
		return missing(rec, "target", "no target property")
	case rec.Language != StructuredQuery:
		return manual(rec, fmt.Sprintf("The %s language cannot be evaluated in the Postman sandbox.", script.Comment(rec.languageLabel())), nil)
	}

	accessor, err := jsonpath.Translate(rec.SourcePath)
	if strings.TrimSpace(rec.SourcePath) != "" && err != nil {
		w := diag.Unsupported("JSONPath", "transfer %q: %v", rec.Label(), err)
		return manual(rec, "The JSONPath expression has no property accessor form.", &w)
	}

	return script.Result{Lines: guarded(rec, accessor)}
}

func guarded(rec Record, accessor string) []string {
	label := rec.Label()
	msg := func(s string) string { return script.Quote(fmt.Sprintf("Property transfer %q: %s", label, s)) }

	var extract []string
	if strings.TrimSpace(rec.SourcePath) == "" {
		extract = []string{"store(source);"}
	} else {
		extract = []string{
			"let data;",
			"try {",
			"    data = JSON.parse(source);",
			"} catch (parseError) {",
			"    console.warn(" + msg("stored value is not JSON") + ", parseError);",
			"}",
			"if (data !== undefined) {",
			"    store(data" + accessor + ");",
			"}",
		}
	}

	target := script.Quote(rec.targetKey())
	body := []string{
		"const source = pm.collectionVariables.get(" + script.Quote(rec.sourceKey()) + ");",
		"const store = (value) => {",
		"    if (value === undefined) {",
		"        console.warn(" + msg("path "+rec.SourcePath+" did not resolve") + ");",
		"        return;",
		"    }",
		"    pm.collectionVariables.set(" + target + `, typeof value === "object" ? JSON.stringify(value) : value);`,
		"    console.log(" + msg("set") + ", " + target + ", value);",
		"};",
		"if (source === undefined || source === null || source === \"\") {",
		"    console.warn(" + msg("nothing stored for step "+rec.SourceName) + ");",
		"} else {",
	}
	body = append(body, script.Indent(extract, 1)...)
	body = append(body, "}")

	out := []string{
		fmt.Sprintf("// Property transfer %s: %s %s -> %s",
			script.Quote(script.Comment(label)), script.Comment(rec.SourceName), script.Comment(rec.SourcePath), script.Comment(rec.targetKey())),
		"try {",
	}
	out = append(out, script.Indent(body, 1)...)
	return append(out,
		"} catch (error) {",
		"    console.error("+msg("failed")+", error);",
		"}",
	)
}

// manual renders a transfer the engine cannot perform as comments only.
func manual(rec Record, reason string, w *diag.Warning) script.Result {
	path := rec.SourcePath
	if path == "" {
		path = "(none)"
	}
	lines := []string{
		fmt.Sprintf("// Property transfer %s requires manual completion.", script.Quote(script.Comment(rec.Label()))),
		fmt.Sprintf("//   Source: step %s, property %s", script.Quote(script.Comment(rec.SourceName)), script.Quote(script.Comment(rec.sourceKey()))),
		fmt.Sprintf("//   Path (%s): %s", script.Comment(rec.languageLabel()), script.Comment(path)),
		fmt.Sprintf("//   Target: %s", script.Quote(script.Comment(rec.targetKey()))),
		"//   " + reason,
		"//   Manual action: extract the value in this step's script and store it with pm.collectionVariables.set.",
	}
	res := script.Result{Lines: lines}
	if w != nil {
		res.Warnings = []diag.Warning{*w}
	} else {
		res.Warnings = []diag.Warning{diag.Unsupported(rec.languageLabel(), "transfer %q uses %s and needs manual completion", rec.Label(), rec.languageLabel())}
	}
	return res
}

func missing(rec Record, field, why string) script.Result {
	return script.Result{
		Lines: []string{
			fmt.Sprintf("// Property transfer %s skipped: %s.", script.Quote(script.Comment(rec.Label())), why),
		},
		Warnings: []diag.Warning{diag.Missing(field, "transfer %q: %s", rec.Label(), why)},
	}
}

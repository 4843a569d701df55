package script

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/naming"
)

// Special cases are structural rewrites no single substitution rule can
// express. They run line by line after the catalog and skip comment lines
// and lines inside a multi-line template literal.

var (
	libraryNew  = regexp.MustCompile(`^(\s*)(?:let|const|var|[A-Z][\w$.]*)\s+([A-Za-z_$][\w$]*)\s*=\s*new\s+([A-Za-z_$][\w$.]*)\s*\(\s*log\s*,\s*context\s*,\s*testRunner\s*\)\s*;?\s*$`)
	libraryLoad = regexp.MustCompile(`^(\s*)(?:let|const|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(.*\b(?:parseClass|GroovyShell|GroovyClassLoader|newInstance)\b.*)$`)
	quotedText  = regexp.MustCompile(`["'` + "`" + `]([^"'` + "`" + `\n]+)["'` + "`" + `]`)

	xmlTraversal = regexp.MustCompile(`\b(?:XmlHolder|getXmlHolder|XmlSlurper|XmlParser|getNodeValues?|getDomNode|responseContentAsXml)\b`)

	stepRun     = regexp.MustCompile(`\.run\(\s*testRunner\s*,\s*context\s*\)|\brunTestStep(?:ByName)?\(`)
	stepRunName = regexp.MustCompile(`(?:testSteps\[\s*|getTestStepByName\(\s*|runTestStepByName\(\s*)["']([^"'\n]+)["']`)

	// responsePath finds context.expand('${Step#Response#<path>}'), which
	// reads one value out of a stored step response.
	responsePath = regexp.MustCompile(`context\.expand\([ \t]*["'` + "`" + `]\$\{([^#}"'` + "`" + `\n]+)#Response#([^}\n]+)\}["'` + "`" + `][ \t]*\)`)

	// groovyMap finds a [key: value] literal the map rules left behind.
	// It runs on code with strings removed, so a quoted key leaves "[:".
	groovyMap = regexp.MustCompile(`\[[ \t]*(?:[A-Za-z_]\w*)?[ \t]*:`)
)

const (
	xmlWorkaround = "parse the body with xml2Json(pm.response.text()) and read the value from the resulting object"
	mapWorkaround = "rewrite the map as a JavaScript object literal"
)

func applySpecialCases(body string, accessor func(string) (string, error)) (string, []diag.Warning) {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	var warnings []diag.Warning

	inLiteral := continuations(lines)

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if inLiteral[i] || strings.HasPrefix(trimmed, "//") {
			out = append(out, line)
			continue
		}

		switch {
		case libraryNew.MatchString(line):
			m := libraryNew.FindStringSubmatch(line)
			lib := m[3][strings.LastIndexByte(m[3], '.')+1:]
			out = append(out, libraryLookup(m[1], m[2], lib))

		case libraryLoad.MatchString(line):
			m := libraryLoad.FindStringSubmatch(line)
			out = append(out, libraryLookup(m[1], m[2], libraryName(m[2], m[3])))

		case responsePath.MatchString(line):
			converted, err := expandResponsePaths(line, accessor)
			if err != nil {
				m := responsePath.FindStringSubmatch(line)
				action := fmt.Sprintf("read the value from JSON.parse(pm.collectionVariables.get(%s))", Quote(m[1]+"_response"))
				out = append(out, unsupportedLine(line, "response path expansion", action)...)
				warnings = append(warnings, diag.Unsupported("response path expansion", "commented out: %s: %v", trimmed, err))
				break
			}
			out = append(out, converted)

		case xmlTraversal.MatchString(line):
			out = append(out, unsupportedLine(line, "XML traversal", xmlWorkaround)...)
			warnings = append(warnings, diag.Unsupported("XML traversal", "commented out: %s", trimmed))

		case stepRun.MatchString(line):
			action := "queue the step with postman.setNextRequest or call it with pm.sendRequest"
			if m := stepRunName.FindStringSubmatch(line); m != nil {
				action = fmt.Sprintf("use postman.setNextRequest(%s) or pm.sendRequest", Quote(m[1]))
			}
			out = append(out, unsupportedLine(line, "step re-execution", action)...)
			warnings = append(warnings, diag.Unsupported("step re-execution", "commented out: %s", trimmed))

		case groovyMap.MatchString(code(line)):
			out = append(out, unsupportedLine(line, "map literal", mapWorkaround)...)
			warnings = append(warnings, diag.Unsupported("map literal", "commented out: %s", trimmed))

		default:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), warnings
}

var errNoAccessor = errors.New("no JSONPath translator configured")

// expandResponsePaths rewrites every response path expansion on line into a
// parse of the stored response followed by the path's accessor chain.
func expandResponsePaths(line string, accessor func(string) (string, error)) (string, error) {
	if accessor == nil {
		return "", errNoAccessor
	}
	var firstErr error
	out := responsePath.ReplaceAllStringFunc(line, func(expr string) string {
		m := responsePath.FindStringSubmatch(expr)
		acc, err := accessor(strings.TrimSpace(m[2]))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return expr
		}
		return fmt.Sprintf("JSON.parse(pm.collectionVariables.get(%s))%s", Quote(m[1]+"_response"), acc)
	})
	return out, firstErr
}

// libraryLookup replaces a script library instantiation with a read of the
// library state the collection-level script published.
func libraryLookup(indent, variable, lib string) string {
	return fmt.Sprintf(`%sconst %s = JSON.parse(pm.collectionVariables.get(%s) || "{}");`, indent, variable, Quote(lib))
}

// libraryName guesses the library a dynamic class load refers to: the last
// quoted file or class name on the line, else the variable name.
func libraryName(variable, expr string) string {
	var candidate string
	for _, m := range quotedText.FindAllStringSubmatch(expr, -1) {
		candidate = m[1]
	}
	if candidate != "" {
		base := path.Base(strings.ReplaceAll(candidate, `\`, "/"))
		base = strings.TrimSuffix(base, ".groovy")
		if id := naming.Identifier(base); id != "" {
			return id
		}
	}
	if id := naming.Identifier(variable); id != "" {
		return id
	}
	return variable
}

// unsupportedLine comments a statement out and keeps the block structure
// intact: braces the line closed or opened are reproduced as bare blocks.
func unsupportedLine(line, construct, action string) []string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	closes, opens := braceShape(line)

	var out []string
	for i := 0; i < closes; i++ {
		out = append(out, indent+"}")
	}
	out = append(out,
		fmt.Sprintf("%s// UNSUPPORTED (%s): %s", indent, construct, Comment(strings.TrimSpace(line))),
		fmt.Sprintf("%s// Manual action: %s", indent, action),
	)
	for i := 0; i < opens; i++ {
		out = append(out, indent+"{")
	}
	return out
}

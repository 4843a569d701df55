package script

import (
	"regexp"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
)

var importLine = regexp.MustCompile(`^\s*(import|package)\s+(?:static\s+)?([\w.*$]+)(?:\s+as\s+\w+)?\s*;?\s*$`)

// coveredImports are packages whose uses are rewritten by the catalog or the
// special-case pass, so the import itself can go without a warning.
var coveredImports = []string{
	"groovy.json.",
	"java.util.",
	"groovy.xml.",
	"groovy.util.",
	"com.eviware.soapui.support.GroovyUtils",
	"com.eviware.soapui.support.XmlHolder",
}

func covered(pkg string) bool {
	for _, prefix := range coveredImports {
		if strings.HasPrefix(pkg, prefix) {
			return true
		}
	}
	return false
}

// stripImports removes every import and package line. Imports without a
// sandbox equivalent are listed, in source order, in a leading warning
// comment and reported.
func stripImports(text string) (string, []diag.Warning) {
	lines := strings.Split(text, "\n")
	kept := lines[:0:0]
	var unsupported []string
	var warnings []diag.Warning

	for _, line := range lines {
		m := importLine.FindStringSubmatch(line)
		if m == nil {
			kept = append(kept, line)
			continue
		}
		if m[1] == "package" || covered(m[2]) {
			continue
		}
		unsupported = append(unsupported, m[2])
		warnings = append(warnings, diag.Unsupported("import", "import %s has no Postman sandbox equivalent", m[2]))
	}

	if len(unsupported) == 0 {
		return strings.Join(kept, "\n"), nil
	}

	header := []string{"// WARNING: the following imports have no equivalent in the Postman sandbox; review their uses:"}
	for _, pkg := range unsupported {
		header = append(header, "//   "+pkg)
	}
	return strings.Join(append(header, kept...), "\n"), warnings
}

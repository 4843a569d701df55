// Package naming derives JavaScript identifiers and file names from SoapUI
// display names, which are free text and often contain spaces, punctuation
// and accented characters.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// Fold strips diacritics: "Café Réponse" becomes "Cafe Reponse".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Identifier turns a display name into a PascalCase JavaScript identifier,
// e.g. "common utils v2" becomes "CommonUtilsV2". It returns "" when the
// name has no letters or digits.
func Identifier(name string) string {
	words := strings.FieldsFunc(Fold(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	for _, w := range words {
		b.WriteString(titleCaser.String(w))
	}
	id := b.String()
	if unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	return id
}

// FileName turns a display name into a portable file name stem. Runs of
// characters outside [A-Za-z0-9._-] collapse to a single underscore.
func FileName(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range Fold(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.Trim(b.String(), "_.")
	if out == "" {
		return "collection"
	}
	return out
}

// Package transfer turns SoapUI property transfers into Postman pre-request
// script blocks, and owns the naming of the collection variables that carry
// values between requests.
package transfer

import (
	"fmt"
	"strings"
)

// Language is the path language a transfer's source path is written in.
type Language int

const (
	// StructuredQuery is JSONPath, which translates to property accessors.
	StructuredQuery Language = iota
	// Opaque covers XPath, XQuery and anything else the engine cannot
	// evaluate.
	Opaque
)

func (l Language) String() string {
	if l == StructuredQuery {
		return "structured-query"
	}
	return "opaque"
}

// MarshalText encodes the language by name.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts a language name or a SoapUI label such as
// "JSONPATH".
func (l *Language) UnmarshalText(b []byte) error {
	switch s := string(b); s {
	case "structured-query":
		*l = StructuredQuery
	case "opaque":
		*l = Opaque
	default:
		*l = ParseLanguage(s)
	}
	return nil
}

// ParseLanguage classifies a SoapUI path language label such as "JSONPATH",
// "XPATH" or "XQUERY".
func ParseLanguage(label string) Language {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "JSONPATH", "JSON_PATH", "JSON":
		return StructuredQuery
	default:
		return Opaque
	}
}

// Record is one property transfer.
type Record struct {
	Name       string `json:"name,omitempty"`
	SourceName string `json:"source_name"`
	// SourceProperty is the source step property; empty or "Response" reads
	// the stored response body.
	SourceProperty string   `json:"source_property,omitempty"`
	SourcePath     string   `json:"source_path,omitempty"`
	Language       Language `json:"language"`
	// LanguageLabel is the path language as written in the project.
	LanguageLabel string `json:"language_label,omitempty"`
	TargetName    string `json:"target_name"`
	TargetPath    string `json:"target_path,omitempty"`
}

// Label is the display name, or a default built from source and target.
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("%s to %s", r.SourceName, r.targetKey())
}

func (r Record) targetKey() string {
	if r.TargetPath != "" {
		return r.TargetPath
	}
	return r.TargetName
}

func (r Record) sourceKey() string {
	if r.SourceProperty == "" || strings.EqualFold(r.SourceProperty, "Response") {
		return ResponseKey(r.SourceName)
	}
	return PropertyKey(r.SourceName, r.SourceProperty)
}

func (r Record) languageLabel() string {
	if r.LanguageLabel != "" {
		return r.LanguageLabel
	}
	return r.Language.String()
}

// ResponseKey is the collection variable a step's response body is stored
// under. The rule catalog's step response mappings use the same form.
func ResponseKey(step string) string {
	return step + "_response"
}

// PropertyKey is the collection variable for a property. Properties owned
// by a step are prefixed with the step name; project, suite and test case
// properties (owner "" or "#Scope#") are not.
func PropertyKey(owner, prop string) string {
	if owner == "" || strings.HasPrefix(owner, "#") {
		return prop
	}
	return owner + "_" + prop
}

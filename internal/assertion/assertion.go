// Package assertion turns SoapUI assertions into Postman test blocks.
package assertion

import "fmt"

// Kind is the assertion family.
type Kind int

const (
	StatusCodes Kind = iota
	InvalidStatusCodes
	PathMatch
	PathExists
	Contains
	NotContains
	InlineScript
	ResponseSLA
	// Unsupported covers SoapUI assertion types with no Postman equivalent
	// (schema compliance, SOAP faults, XPath and XQuery matches).
	Unsupported
)

var kindNames = map[Kind]string{
	StatusCodes:        "status-codes",
	InvalidStatusCodes: "invalid-status-codes",
	PathMatch:          "path-match",
	PathExists:         "path-exists",
	Contains:           "contains",
	NotContains:        "not-contains",
	InlineScript:       "inline-script",
	ResponseSLA:        "response-sla",
	Unsupported:        "unsupported",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown assertion kind %q", s)
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Record is one assertion as read from the project. Only the fields of its
// Kind are meaningful.
type Record struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name,omitempty"`

	Codes      []int  `json:"codes,omitempty"`       // StatusCodes, InvalidStatusCodes
	Path       string `json:"path,omitempty"`        // PathMatch, PathExists
	Expected   string `json:"expected,omitempty"`    // PathMatch value; PathExists "false" inverts
	Token      string `json:"token,omitempty"`       // Contains, NotContains
	IgnoreCase bool   `json:"ignore_case,omitempty"` // Contains, NotContains
	Script     string `json:"script,omitempty"`      // InlineScript
	SLA        int    `json:"sla,omitempty"`         // ResponseSLA, milliseconds

	// RawType is the SoapUI assertion type, kept for Unsupported comments.
	RawType string `json:"raw_type,omitempty"`
}

// Label is the display name, or a default derived from the kind.
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Kind.String() + " assertion"
}

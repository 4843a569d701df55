// Package diag defines the warnings the conversion engine attaches to its
// results. Nothing in the engine fails outright; problems are reported here
// for later human review.
package diag

import "fmt"

// Kind classifies a warning.
type Kind int

const (
	// RuleApplicationFailure means a single rule was malformed or failed to
	// apply. The rule was skipped and conversion continued.
	RuleApplicationFailure Kind = iota
	// UnsupportedConstruct means a recognized source idiom has no target
	// equivalent and was rendered as a comment for manual follow-up.
	UnsupportedConstruct
	// MissingField means an expected record field was absent and the output
	// was degraded.
	MissingField
)

func (k Kind) String() string {
	switch k {
	case RuleApplicationFailure:
		return "rule-failure"
	case UnsupportedConstruct:
		return "unsupported"
	case MissingField:
		return "missing-field"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText lets warnings serialize with a readable kind.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{RuleApplicationFailure, UnsupportedConstruct, MissingField} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown warning kind %q", b)
}

// Warning is a single non-fatal problem found during conversion.
type Warning struct {
	Kind    Kind   `json:"kind"`
	Source  string `json:"source,omitempty"` // rule name, construct, or field
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Source == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Kind, w.Source, w.Message)
}

// Unsupported builds an UnsupportedConstruct warning.
func Unsupported(construct, format string, args ...any) Warning {
	return Warning{Kind: UnsupportedConstruct, Source: construct, Message: fmt.Sprintf(format, args...)}
}

// Missing builds a MissingField warning.
func Missing(field, format string, args ...any) Warning {
	return Warning{Kind: MissingField, Source: field, Message: fmt.Sprintf(format, args...)}
}

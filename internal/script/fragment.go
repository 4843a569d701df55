// Package script converts Groovy fragments into Postman sandbox JavaScript.
//
// A Rewriter strips imports, runs the rule catalog stage by stage, handles the
// structural special cases no single rule can express, and wraps the body for
// the fragment's role. Conversion never fails: problems become warnings and,
// when the output would be malformed, the original text is kept as comments.
package script

import (
	"fmt"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
)

// Role says where a converted fragment will live.
type Role int

const (
	// RoleTest wraps the body in a named pm.test block.
	RoleTest Role = iota
	// RolePreRequest wraps the body in an immediately invoked function.
	RolePreRequest
	// RoleLibrary wraps the body in an object with an init function and
	// invokes it.
	RoleLibrary
	// RoleAssertionInline returns the bare body; the assertion generator
	// supplies the wrapper.
	RoleAssertionInline
)

var roleNames = map[Role]string{
	RoleTest:            "test",
	RolePreRequest:      "prerequest",
	RoleLibrary:         "library",
	RoleAssertionInline: "assertion",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole maps a role name ("test", "prerequest", "library", "assertion")
// back to a Role.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "pre-request", "pre_request":
		key = "prerequest"
	}
	for r, name := range roleNames {
		if name == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown script role %q (want test, prerequest, library or assertion)", s)
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Fragment is one unit of Groovy source to convert.
type Fragment struct {
	Name string `json:"name,omitempty"` // test name or library module name
	Text string `json:"text"`
	Role Role   `json:"role"`
}

// Result is the converted JavaScript plus any warnings. It is always
// produced, even for empty or malformed input.
type Result struct {
	Lines    []string       `json:"lines"`
	Warnings []diag.Warning `json:"warnings,omitempty"`
	// Async is set when the body awaits, so a caller that supplies its own
	// wrapper must make it async.
	Async bool `json:"async,omitempty"`
}

// Text joins the lines with newlines.
func (r Result) Text() string {
	return strings.Join(r.Lines, "\n")
}

// Clone returns a deep copy.
func (r Result) Clone() Result {
	out := Result{Async: r.Async}
	if r.Lines != nil {
		out.Lines = append([]string(nil), r.Lines...)
	}
	if r.Warnings != nil {
		out.Warnings = append([]diag.Warning(nil), r.Warnings...)
	}
	return out
}

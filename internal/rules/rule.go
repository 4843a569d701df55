// Package rules holds the pattern-driven substitution rules that rewrite
// Groovy source text into Postman sandbox JavaScript.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/karthiktools/convert2postman/internal/diag"
)

// Rule is one named pattern/template substitution. A Rule is pure: applying
// it depends only on the input text. Pattern is compiled once on first use.
type Rule struct {
	Name     string
	Pattern  string
	Template string

	once sync.Once
	re   *regexp.Regexp
	tmpl *Template
	err  error
}

// New returns a rule and compiles it eagerly. A malformed rule is still
// returned; it applies as a no-op and reports why through Err and Apply.
func New(name, pattern, template string) *Rule {
	r := &Rule{Name: name, Pattern: pattern, Template: template}
	r.compile()
	return r
}

func (r *Rule) compile() {
	r.once.Do(func() {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			r.err = fmt.Errorf("pattern: %w", err)
			return
		}
		tmpl, err := CompileTemplate(r.Template)
		if err != nil {
			r.err = err
			return
		}
		if tmpl.MaxGroup() > re.NumSubexp() {
			r.err = fmt.Errorf("template references group %d but pattern has %d groups", tmpl.MaxGroup(), re.NumSubexp())
			return
		}
		r.re, r.tmpl = re, tmpl
	})
}

// Err reports why the rule is unusable, or nil.
func (r *Rule) Err() error {
	r.compile()
	return r.err
}

// Apply rewrites every non-overlapping match in text. On any failure the
// input is returned unchanged together with a RuleApplicationFailure warning.
func (r *Rule) Apply(text string) (out string, warn *diag.Warning) {
	if err := r.Err(); err != nil {
		return text, r.failure(err)
	}

	defer func() {
		if p := recover(); p != nil {
			out, warn = text, r.failure(fmt.Errorf("panic: %v", p))
		}
	}()

	matches := r.re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		r.tmpl.expand(&b, text, m)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func (r *Rule) failure(err error) *diag.Warning {
	return &diag.Warning{
		Kind:    diag.RuleApplicationFailure,
		Source:  r.Name,
		Message: fmt.Sprintf("rule skipped: %v", err),
	}
}

// ApplyAll runs rules in order over text, collecting warnings from rules that
// failed.
func ApplyAll(rules []*Rule, text string) (string, []diag.Warning) {
	var warnings []diag.Warning
	for _, r := range rules {
		var w *diag.Warning
		text, w = r.Apply(text)
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return text, warnings
}

package rules

import "github.com/karthiktools/convert2postman/internal/diag"

// Stage names a sub-catalog. Stages run in declaration order.
type Stage int

const (
	StageSyntax Stage = iota
	StageAPIMapping
	StageMethodMapping
)

func (s Stage) String() string {
	switch s {
	case StageSyntax:
		return "syntax"
	case StageAPIMapping:
		return "api-mapping"
	case StageMethodMapping:
		return "method-mapping"
	default:
		return "unknown"
	}
}

// Stages lists every stage in application order. Object paths must be
// rewritten before method names become bare, so api-mapping precedes
// method-mapping.
var Stages = []Stage{StageSyntax, StageAPIMapping, StageMethodMapping}

// Catalog is the ordered, immutable set of substitution rules. Build one with
// Default or NewCatalog and share it between rewriters.
type Catalog struct {
	syntax  []*Rule
	api     []*Rule
	methods []*Rule
}

// NewCatalog builds a catalog from the given sub-catalogs. The slices are
// copied so later changes by the caller do not leak in.
func NewCatalog(syntax, api, methods []*Rule) *Catalog {
	return &Catalog{
		syntax:  append([]*Rule(nil), syntax...),
		api:     append([]*Rule(nil), api...),
		methods: append([]*Rule(nil), methods...),
	}
}

// Default returns the built-in Groovy to Postman catalog.
func Default() *Catalog {
	return NewCatalog(SyntaxRules(), APIRules(), MethodRules())
}

// Rules returns a copy of the rules for one stage.
func (c *Catalog) Rules(s Stage) []*Rule {
	var src []*Rule
	switch s {
	case StageSyntax:
		src = c.syntax
	case StageAPIMapping:
		src = c.api
	case StageMethodMapping:
		src = c.methods
	}
	return append([]*Rule(nil), src...)
}

// Len is the total number of rules.
func (c *Catalog) Len() int {
	return len(c.syntax) + len(c.api) + len(c.methods)
}

// Run applies one stage to text.
func (c *Catalog) Run(s Stage, text string) (string, []diag.Warning) {
	switch s {
	case StageSyntax:
		return ApplyAll(c.syntax, text)
	case StageAPIMapping:
		return ApplyAll(c.api, text)
	case StageMethodMapping:
		return ApplyAll(c.methods, text)
	}
	return text, nil
}

// Apply runs every stage in order.
func (c *Catalog) Apply(text string) (string, []diag.Warning) {
	var all []diag.Warning
	for _, s := range Stages {
		var ws []diag.Warning
		text, ws = c.Run(s, text)
		all = append(all, ws...)
	}
	return text, all
}

// Validate returns the rules that failed to compile.
func (c *Catalog) Validate() []diag.Warning {
	var out []diag.Warning
	for _, s := range Stages {
		for _, r := range c.Rules(s) {
			if err := r.Err(); err != nil {
				out = append(out, *r.failure(err))
			}
		}
	}
	return out
}

package script

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/rules"
)

// State is the progress of one fragment through the rewriter. It exists only
// for the duration of a Convert call.
type State int

const (
	StateReceived State = iota
	StateImportsStripped
	StateSyntaxApplied
	StateAPIMappingApplied
	StateMethodMappingApplied
	StateSpecialCased
	StateWrapped
	StateEmitted
)

var stateNames = [...]string{
	"received", "imports-stripped", "syntax-applied", "api-mapping-applied",
	"method-mapping-applied", "special-cased", "wrapped", "emitted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func stageDone(s rules.Stage) State {
	switch s {
	case rules.StageSyntax:
		return StateSyntaxApplied
	case rules.StageAPIMapping:
		return StateAPIMappingApplied
	default:
		return StateMethodMappingApplied
	}
}

// Options configures a Rewriter.
type Options struct {
	// CacheSize bounds the memo of converted fragments. Zero disables it.
	CacheSize int
	Logger    *slog.Logger
	// PathAccessor turns a JSONPath into an accessor chain, as
	// jsonpath.Translate does. Without it, expansions that read a path
	// out of a step response are commented out as unsupported.
	PathAccessor func(path string) (string, error)
}

// Rewriter converts Groovy fragments with a fixed rule catalog. It is safe
// for concurrent use.
type Rewriter struct {
	catalog  *rules.Catalog
	cache    *memo
	logger   *slog.Logger
	accessor func(string) (string, error)
}

// New returns a Rewriter over catalog. A nil catalog means rules.Default().
func New(catalog *rules.Catalog, opts Options) *Rewriter {
	if catalog == nil {
		catalog = rules.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Rewriter{
		catalog:  catalog,
		cache:    newMemo(opts.CacheSize),
		logger:   logger,
		accessor: opts.PathAccessor,
	}
}

// Catalog returns the rules this rewriter applies.
func (r *Rewriter) Catalog() *rules.Catalog {
	return r.catalog
}

// Cached returns the number of memoized results.
func (r *Rewriter) Cached() int {
	return r.cache.len()
}

// Convert rewrites one fragment. It never panics and never fails; see Result.
func (r *Rewriter) Convert(f Fragment) Result {
	if res, ok := r.cache.get(f); ok {
		return res
	}
	res := r.convert(f)
	r.cache.add(f, res)
	return res
}

type conversion struct {
	state    State
	warnings []diag.Warning
}

func (c *conversion) advance(s State, ws []diag.Warning) {
	c.state = s
	c.warnings = append(c.warnings, ws...)
}

func (r *Rewriter) convert(f Fragment) (res Result) {
	c := &conversion{state: StateReceived}
	async := needsAsync(f.Text)
	original := strings.ReplaceAll(f.Text, "\r\n", "\n")

	defer func() {
		if p := recover(); p != nil {
			w := diag.Warning{
				Kind:    diag.RuleApplicationFailure,
				Source:  "rewriter",
				Message: fmt.Sprintf("conversion panicked after %s: %v", c.state, p),
			}
			r.logger.Warn("script conversion panicked", "name", f.Name, "state", c.state.String(), "panic", p)
			res = Result{
				Lines:    wrap(f, fallbackBody(original, w.Message), async),
				Warnings: append(c.warnings, w),
				Async:    async,
			}
		}
	}()

	body, ws := stripImports(original)
	c.advance(StateImportsStripped, ws)

	for _, stage := range rules.Stages {
		body, ws = r.catalog.Run(stage, body)
		c.advance(stageDone(stage), ws)
	}

	body, ws = applySpecialCases(body, r.accessor)
	c.advance(StateSpecialCased, ws)

	lines := splitBody(body)
	fellBack := false
	if Balanced(original) && !Balanced(body) {
		w := diag.Warning{
			Kind:    diag.RuleApplicationFailure,
			Source:  "rewriter",
			Message: "converted body is not balanced; kept the original as comments",
		}
		c.warnings = append(c.warnings, w)
		lines = fallbackBody(original, w.Message)
		fellBack = true
	}

	lines = wrap(f, lines, async)
	c.advance(StateWrapped, nil)

	r.logger.Debug("converted script",
		"name", f.Name,
		"role", f.Role.String(),
		"lines", len(lines),
		"warnings", len(c.warnings),
		"fallback", fellBack,
	)
	c.advance(StateEmitted, nil)
	return Result{Lines: lines, Warnings: c.warnings, Async: async}
}

// splitBody splits text into lines with trailing blanks removed and leading
// and trailing empty lines dropped. Blanks inside a template literal are kept.
func splitBody(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	open := false
	for _, l := range raw {
		next := templateOpen(l, open)
		if !next {
			l = strings.TrimRight(l, " \t\r")
		}
		lines = append(lines, l)
		open = next
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// fallbackBody keeps the original source as line comments under a warning
// header.
func fallbackBody(original, reason string) []string {
	out := []string{fmt.Sprintf("// WARNING: automatic conversion failed (%s); the original Groovy is kept below for manual conversion.", Comment(reason))}
	for _, l := range splitBody(original) {
		out = append(out, strings.TrimRight("// "+l, " "))
	}
	return out
}

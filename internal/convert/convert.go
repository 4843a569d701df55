// Package convert turns a SoapUI project into a Postman collection,
// environment and review report.
//
// Test suites become folders and test cases sub-folders. Request steps
// become request items carrying their assertions in the test event. Groovy
// steps, property transfers and delays run in the pre-request event of the
// next request, or in the test event of the previous request when nothing
// follows them.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/karthiktools/convert2postman/internal/assertion"
	"github.com/karthiktools/convert2postman/internal/diag"
	"github.com/karthiktools/convert2postman/internal/jsonpath"
	"github.com/karthiktools/convert2postman/internal/postman"
	"github.com/karthiktools/convert2postman/internal/report"
	"github.com/karthiktools/convert2postman/internal/rules"
	"github.com/karthiktools/convert2postman/internal/script"
	"github.com/karthiktools/convert2postman/internal/soapui"
	"github.com/karthiktools/convert2postman/internal/transfer"
)

// Options configures a Converter.
type Options struct {
	// Workers bounds how many test suites convert at once. Zero means
	// GOMAXPROCS.
	Workers int
	// CacheSize bounds the rewriter's memo of converted fragments.
	CacheSize int
	// LibrarySuites are case-insensitive name patterns (path.Match syntax)
	// of suites holding shared Groovy libraries.
	LibrarySuites []string
	// IncludeDisabled converts suites, cases, steps, assertions and
	// transfers disabled in SoapUI.
	IncludeDisabled bool
	Logger          *slog.Logger
}

// Converter converts projects. It is safe for concurrent use.
type Converter struct {
	opts       Options
	rewriter   *script.Rewriter
	assertions *assertion.Generator
	transfers  *transfer.Generator
	logger     *slog.Logger
}

// Output is the result of converting one project.
type Output struct {
	Collection  *postman.Collection
	Environment *postman.Environment
	Report      *report.Report
}

// New returns a Converter over catalog. A nil catalog means rules.Default().
func New(catalog *rules.Catalog, opts Options) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	rw := script.New(catalog, script.Options{
		CacheSize:    opts.CacheSize,
		Logger:       logger,
		PathAccessor: jsonpath.Translate,
	})
	return &Converter{
		opts:       opts,
		rewriter:   rw,
		assertions: assertion.NewGenerator(rw),
		transfers:  transfer.NewGenerator(),
		logger:     logger,
	}
}

// Rewriter returns the script rewriter shared by all conversions.
func (c *Converter) Rewriter() *script.Rewriter { return c.rewriter }

// Assertions returns the assertion generator.
func (c *Converter) Assertions() *assertion.Generator { return c.assertions }

// Transfers returns the property transfer generator.
func (c *Converter) Transfers() *transfer.Generator { return c.transfers }

func (c *Converter) workers() int {
	if c.opts.Workers > 0 {
		return c.opts.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// ConvertFile loads and converts the project at path.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Output, error) {
	p, err := soapui.Load(path)
	if err != nil {
		return nil, err
	}
	out, err := c.ConvertProject(ctx, p)
	if err != nil {
		return nil, err
	}
	out.Report.Source = path
	return out, nil
}

// suiteResult is what one suite contributes to the collection.
type suiteResult struct {
	folder  *postman.Item
	library []string
	vars    []soapui.Property
	report  *report.Report
}

// ConvertProject converts p. Suites are converted concurrently and
// assembled in project order.
func (c *Converter) ConvertProject(ctx context.Context, p *soapui.Project) (*Output, error) {
	out := &Output{
		Collection:  postman.NewCollection(p.Name),
		Environment: postman.NewEnvironment(p.Name),
		Report:      report.New("", p.Name),
	}
	out.Collection.Info.Description = fmt.Sprintf("Converted from the SoapUI project %q.", p.Name)
	for _, prop := range p.Properties {
		out.Collection.SetVariable(prop.Name, prop.Value)
		out.Environment.Set(prop.Name, prop.Value)
	}

	results := make([]*suiteResult, len(p.TestSuites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers())
	for i := range p.TestSuites {
		g.Go(func() error {
			res, err := c.convertSuite(gctx, p, &p.TestSuites[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("converting project %s: %w", p.Name, err)
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		if res.folder != nil {
			out.Collection.Item = append(out.Collection.Item, res.folder)
		}
		out.Collection.AddEvent(postman.ListenPreRequest, res.library)
		for _, v := range res.vars {
			out.Collection.SetVariable(v.Name, v.Value)
		}
		out.Report.Merge(res.report)
	}

	for _, e := range out.Report.Entries {
		c.logger.Warn("conversion warning",
			"location", e.Location,
			"kind", e.Kind.String(),
			"source", e.Source,
			"message", e.Message,
		)
	}
	c.logger.Info("converted project",
		"project", p.Name,
		"requests", out.Report.Summary.Requests,
		"scripts", out.Report.Summary.Scripts,
		"warnings", len(out.Report.Entries),
	)
	return out, nil
}

func (c *Converter) skip(disabled bool) bool {
	return disabled && !c.opts.IncludeDisabled
}

func (c *Converter) isLibrary(name string) bool {
	name = strings.ToLower(name)
	for _, pat := range c.opts.LibrarySuites {
		if ok, err := path.Match(strings.ToLower(pat), name); err == nil && ok {
			return true
		}
	}
	return false
}

func (c *Converter) convertSuite(ctx context.Context, p *soapui.Project, s *soapui.TestSuite) (*suiteResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.skip(s.IsDisabled()) {
		c.logger.Debug("skipping disabled suite", "suite", s.Name)
		return nil, nil
	}

	res := &suiteResult{report: report.New("", ""), vars: append([]soapui.Property(nil), s.Properties...)}
	res.report.Summary.Suites = 1

	if c.isLibrary(s.Name) {
		c.convertLibrary(s, res)
		return res, nil
	}

	folder := postman.NewFolder(s.Name)
	loc := report.Location(s.Name)
	folder.AddEvent(postman.ListenPreRequest, c.lifecycle(res, loc, "setup", s.Name, s.SetupScript, script.RolePreRequest))
	for i := range s.TestCases {
		tc := &s.TestCases[i]
		if c.skip(tc.IsDisabled()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		folder.Item = append(folder.Item, c.convertCase(p, s, tc, res))
	}
	folder.AddEvent(postman.ListenTest, c.lifecycle(res, loc, "teardown", s.Name, s.TearDownScript, script.RoleTest))
	res.folder = folder
	return res, nil
}

// convertLibrary publishes every Groovy step of a library suite in the
// collection pre-request event. Each library runs in its own block and
// stores its state under its identifier for later lookups.
func (c *Converter) convertLibrary(s *soapui.TestSuite, res *suiteResult) {
	for _, tc := range s.TestCases {
		if c.skip(tc.IsDisabled()) {
			continue
		}
		res.report.Summary.Cases++
		for _, st := range tc.TestSteps {
			if st.Kind() != soapui.StepGroovy || c.skip(st.IsDisabled()) {
				continue
			}
			loc := report.Location(s.Name, tc.Name, st.Name)
			if st.Script() == "" {
				res.report.Add(loc, diag.Missing("script", "library step %q has an empty script", st.Name))
				continue
			}
			r := c.rewriter.Convert(script.Fragment{Name: st.Name, Text: st.Script(), Role: script.RoleLibrary})
			res.report.Add(loc, r.Warnings...)
			res.report.Summary.Scripts++

			ident := script.LibraryIdent(st.Name)
			body := append([]string{"// Library " + script.Quote(loc)}, r.Lines...)
			body = append(body, fmt.Sprintf("pm.collectionVariables.set(%s, JSON.stringify(%s));", script.Quote(ident), ident))
			res.library = append(res.library, "{")
			res.library = append(res.library, script.Indent(body, 1)...)
			res.library = append(res.library, "}")
		}
	}
}

// lifecycle converts a setup or teardown script into event lines.
func (c *Converter) lifecycle(res *suiteResult, loc, phase, owner, text string, role script.Role) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	name := owner + " " + phase
	r := c.rewriter.Convert(script.Fragment{Name: name, Text: text, Role: role})
	res.report.Add(report.Location(loc, phase), r.Warnings...)
	res.report.Summary.Scripts++
	header := fmt.Sprintf("// SoapUI %s script of %s; Postman runs it for every request in this folder.", phase, script.Quote(owner))
	return append([]string{header}, r.Lines...)
}

func (c *Converter) convertCase(p *soapui.Project, s *soapui.TestSuite, tc *soapui.TestCase, res *suiteResult) *postman.Item {
	res.report.Summary.Cases++
	res.vars = append(res.vars, tc.Properties...)

	loc := report.Location(s.Name, tc.Name)
	folder := postman.NewFolder(tc.Name)
	folder.AddEvent(postman.ListenPreRequest, c.lifecycle(res, loc, "setup", tc.Name, tc.SetupScript, script.RolePreRequest))

	var (
		pending []soapui.TestStep
		last    *postman.Item
	)
	for _, st := range tc.TestSteps {
		if c.skip(st.IsDisabled()) {
			continue
		}
		stepLoc := report.Location(s.Name, tc.Name, st.Name)
		switch st.Kind() {
		case soapui.StepRestRequest, soapui.StepHTTPRequest, soapui.StepSOAPRequest:
			item := c.requestItem(p, st, stepLoc, res)
			item.AddEvent(postman.ListenPreRequest, c.steps(pending, script.RolePreRequest, s, tc, res))
			pending = nil
			folder.Item = append(folder.Item, item)
			last = item
		case soapui.StepGroovy, soapui.StepTransfer, soapui.StepDelay:
			pending = append(pending, st)
		case soapui.StepProperties:
			for _, prop := range st.Config.Properties {
				res.vars = append(res.vars, soapui.Property{Name: transfer.PropertyKey(st.Name, prop.Name), Value: prop.Value})
			}
		default:
			res.report.Add(stepLoc, diag.Unsupported("test step", "step type %q has no Postman equivalent", st.Type))
		}
	}

	if len(pending) > 0 {
		if last != nil {
			last.AddEvent(postman.ListenTest, c.steps(pending, script.RoleTest, s, tc, res))
		} else {
			folder.AddEvent(postman.ListenPreRequest, c.steps(pending, script.RolePreRequest, s, tc, res))
		}
	}

	folder.AddEvent(postman.ListenTest, c.lifecycle(res, loc, "teardown", tc.Name, tc.TearDownScript, script.RoleTest))
	return folder
}

// steps renders non-request steps in order for the given event role.
func (c *Converter) steps(pending []soapui.TestStep, role script.Role, s *soapui.TestSuite, tc *soapui.TestCase, res *suiteResult) []string {
	var out []string
	for _, st := range pending {
		loc := report.Location(s.Name, tc.Name, st.Name)
		switch st.Kind() {
		case soapui.StepGroovy:
			out = append(out, "// Groovy step "+script.Quote(st.Name))
			if st.Script() == "" {
				out = append(out, "// (empty script)")
				res.report.Add(loc, diag.Missing("script", "groovy step %q has an empty script", st.Name))
				continue
			}
			r := c.rewriter.Convert(script.Fragment{Name: st.Name, Text: st.Script(), Role: role})
			out = append(out, r.Lines...)
			res.report.Add(loc, r.Warnings...)
			res.report.Summary.Scripts++

		case soapui.StepTransfer:
			recs := st.Transfers(c.opts.IncludeDisabled)
			if len(recs) == 0 {
				res.report.Add(loc, diag.Missing("transfers", "transfer step %q defines no transfers", st.Name))
			}
			for _, rec := range recs {
				r := c.transfers.Convert(rec)
				out = append(out, r.Lines...)
				res.report.Add(loc, r.Warnings...)
				res.report.Summary.Transfers++
			}

		case soapui.StepDelay:
			out = append(out,
				fmt.Sprintf("// Delay step %s", script.Quote(st.Name)),
				fmt.Sprintf("setTimeout(() => {}, %d);", st.DelayMillis()),
			)
		}
	}
	return out
}

func (c *Converter) requestItem(p *soapui.Project, st soapui.TestStep, loc string, res *suiteResult) *postman.Item {
	res.report.Summary.Requests++
	req := st.HTTP(p)

	expand := func(s string) string {
		out, ws := ExpandProperties(s)
		res.report.Add(loc, ws...)
		return out
	}

	url := expand(req.URL)
	if url == "" {
		res.report.Add(loc, diag.Missing("endpoint", "request %q has no endpoint", st.Name))
	}
	body := expand(req.Body)

	headers := []postman.Header{}
	hasContentType := false
	for _, h := range req.Headers {
		if strings.EqualFold(h.Key, "Content-Type") {
			hasContentType = true
		}
		headers = append(headers, postman.Header{Key: h.Key, Value: expand(h.Value)})
	}
	if !hasContentType && body != "" && req.MediaType != "" {
		headers = append(headers, postman.Header{Key: "Content-Type", Value: req.MediaType})
	}

	item := &postman.Item{
		Name: st.Name,
		Request: &postman.Request{
			Method: req.Method,
			Header: headers,
			Body:   postman.NewRawBody(body, req.MediaType),
			URL:    postman.ParseURL(url),
		},
	}

	var tests []string
	for _, rec := range st.Assertions(c.opts.IncludeDisabled) {
		r := c.assertions.Convert(rec)
		tests = append(tests, r.Lines...)
		res.report.Add(loc, r.Warnings...)
		res.report.Summary.Assertions++
	}
	tests = append(tests, transfer.PersistResponse(st.Name)...)
	item.AddEvent(postman.ListenTest, tests)
	return item
}

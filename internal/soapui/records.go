package soapui

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/karthiktools/convert2postman/internal/assertion"
	"github.com/karthiktools/convert2postman/internal/transfer"
)

// StepKind classifies a test step by its type attribute.
type StepKind int

const (
	StepOther StepKind = iota
	StepRestRequest
	StepHTTPRequest
	StepSOAPRequest
	StepGroovy
	StepTransfer
	StepProperties
	StepDelay
)

var stepTypes = map[string]StepKind{
	"restrequest": StepRestRequest,
	"httprequest": StepHTTPRequest,
	"request":     StepSOAPRequest,
	"groovy":      StepGroovy,
	"transfer":    StepTransfer,
	"properties":  StepProperties,
	"delay":       StepDelay,
}

func (k StepKind) String() string {
	for name, v := range stepTypes {
		if v == k {
			return name
		}
	}
	return "other"
}

// Kind classifies the step.
func (s TestStep) Kind() StepKind {
	return stepTypes[strings.ToLower(strings.TrimSpace(s.Type))]
}

// IsRequest reports whether the step sends an HTTP request.
func (s TestStep) IsRequest() bool {
	switch s.Kind() {
	case StepRestRequest, StepHTTPRequest, StepSOAPRequest:
		return true
	}
	return false
}

// Script is the trimmed Groovy source of a groovy step.
func (s TestStep) Script() string {
	return strings.TrimSpace(s.Config.Script)
}

// DelayMillis is the pause of a delay step, zero when unset or malformed.
func (s TestStep) DelayMillis() int {
	n, err := strconv.Atoi(strings.TrimSpace(s.Config.Delay))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// HTTPRequest is the request a step sends, with property expansions left
// as written.
type HTTPRequest struct {
	Method    string
	URL       string
	Headers   []Entry
	Body      string
	MediaType string
}

// HTTP builds the request of a request step. p resolves service endpoints
// and SOAP actions; it may be nil.
func (s TestStep) HTTP(p *Project) HTTPRequest {
	c := s.Config
	switch s.Kind() {
	case StepRestRequest:
		r := c.RestRequest
		if r == nil {
			r = &Request{}
		}
		req := HTTPRequest{
			Method:    strings.ToUpper(firstNonEmpty(c.MethodName, "GET")),
			Headers:   headers(r.Settings),
			Body:      strings.TrimSpace(r.Body),
			MediaType: r.MediaType,
		}
		endpoint := firstNonEmpty(r.Endpoint, serviceEndpoint(p, c.Service))
		if endpoint == "" && r.OriginalURI != "" {
			req.URL = withQuery(r.OriginalURI, r.Parameters, nil)
			return req
		}
		path, used := pathParams(c.ResourcePath, r.Parameters)
		req.URL = withQuery(joinURL(endpoint, path), r.Parameters, used)
		return req

	case StepHTTPRequest:
		req := HTTPRequest{
			Method:    strings.ToUpper(firstNonEmpty(c.Method, "GET")),
			Headers:   headers(c.Settings),
			MediaType: c.MediaType,
			URL:       withQuery(strings.TrimSpace(c.Endpoint), c.Parameters, nil),
		}
		if c.Request != nil {
			req.Body = strings.TrimSpace(c.Request.Text)
		}
		return req

	case StepSOAPRequest:
		r := c.Request
		if r == nil {
			r = &Request{}
		}
		req := HTTPRequest{
			Method:    "POST",
			URL:       firstNonEmpty(strings.TrimSpace(r.Endpoint), serviceEndpoint(p, c.Interface)),
			Body:      strings.TrimSpace(r.Body),
			MediaType: "text/xml",
			Headers:   []Entry{{Key: "Content-Type", Value: "text/xml;charset=UTF-8"}},
		}
		if p != nil {
			if action := p.SOAPAction(c.Interface, c.Operation); action != "" {
				req.Headers = append(req.Headers, Entry{Key: "SOAPAction", Value: strconv.Quote(action)})
			}
		}
		req.Headers = append(req.Headers, headers(r.Settings)...)
		return req
	}
	return HTTPRequest{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func serviceEndpoint(p *Project, name string) string {
	if p == nil {
		return ""
	}
	if iface, ok := p.Interface(name); ok && len(iface.Endpoints) > 0 {
		return strings.TrimSpace(iface.Endpoints[0])
	}
	return ""
}

func joinURL(endpoint, path string) string {
	if path == "" {
		return endpoint
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(endpoint, "/") + path
}

// pathParams substitutes {name} placeholders in a resource path and
// reports which parameters it consumed.
func pathParams(path string, params []Entry) (string, map[string]bool) {
	used := map[string]bool{}
	for _, e := range params {
		ph := "{" + e.Key + "}"
		if strings.Contains(path, ph) {
			path = strings.ReplaceAll(path, ph, e.Value)
			used[e.Key] = true
		}
	}
	return path, used
}

// withQuery appends the unused parameters as a query string. Values are not
// escaped so property expansions survive for later rewriting.
func withQuery(u string, params []Entry, used map[string]bool) string {
	var parts []string
	for _, e := range params {
		if e.Key == "" || used[e.Key] {
			continue
		}
		parts = append(parts, e.Key+"="+e.Value)
	}
	if len(parts) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + strings.Join(parts, "&")
}

// headers decodes the request-headers setting, whose value is an escaped
// XML fragment of <con:entry key="" value=""/> elements.
func headers(settings []Setting) []Entry {
	for _, s := range settings {
		if !strings.HasSuffix(s.ID, "@request-headers") || strings.TrimSpace(s.Value) == "" {
			continue
		}
		var frag struct {
			Entries []Entry `xml:"entry"`
		}
		if err := xml.Unmarshal([]byte(s.Value), &frag); err != nil {
			return nil
		}
		return frag.Entries
	}
	return nil
}

func (s TestStep) assertionConfigs() []AssertionConfig {
	c := s.Config
	switch s.Kind() {
	case StepRestRequest:
		if c.RestRequest != nil {
			return c.RestRequest.Assertions
		}
	case StepHTTPRequest:
		return c.Assertions
	case StepSOAPRequest:
		if c.Request != nil {
			return c.Request.Assertions
		}
	}
	return nil
}

// Assertions returns the assertions of a request step. Disabled ones are
// left out unless includeDisabled is set.
func (s TestStep) Assertions(includeDisabled bool) []assertion.Record {
	var out []assertion.Record
	for _, a := range s.assertionConfigs() {
		if isTrue(a.Disabled) && !includeDisabled {
			continue
		}
		out = append(out, a.Record())
	}
	return out
}

// Record maps the assertion onto the generator's model. Types without a
// Postman equivalent become assertion.Unsupported.
func (a AssertionConfig) Record() assertion.Record {
	c := a.Config
	rec := assertion.Record{Name: a.Name, RawType: a.Type}
	switch a.Type {
	case "Valid HTTP Status Codes":
		rec.Kind, rec.Codes = assertion.StatusCodes, ParseCodes(c.Codes)
	case "Invalid HTTP Status Codes":
		rec.Kind, rec.Codes = assertion.InvalidStatusCodes, ParseCodes(c.Codes)
	case "Simple Contains", "Simple NotContains":
		rec.Kind = assertion.Contains
		if a.Type == "Simple NotContains" {
			rec.Kind = assertion.NotContains
		}
		if isTrue(c.UseRegEx) {
			rec.Kind, rec.RawType = assertion.Unsupported, a.Type+" (regular expression)"
			break
		}
		rec.Token, rec.IgnoreCase = c.Token, isTrue(c.IgnoreCase)
	case "GroovyScriptAssertion":
		rec.Kind, rec.Script = assertion.InlineScript, strings.TrimSpace(c.ScriptText)
	case "JsonPath Match":
		rec.Kind, rec.Path, rec.Expected = assertion.PathMatch, strings.TrimSpace(c.Path), c.Content
	case "JsonPath Existence Match":
		rec.Kind, rec.Path, rec.Expected = assertion.PathExists, strings.TrimSpace(c.Path), strings.TrimSpace(c.Content)
	case "Response SLA Assertion":
		rec.Kind = assertion.ResponseSLA
		rec.SLA, _ = strconv.Atoi(strings.TrimSpace(c.SLA))
	default:
		rec.Kind = assertion.Unsupported
	}
	return rec
}

// Transfers returns the transfers of a transfer step. Disabled ones are
// left out unless includeDisabled is set.
func (s TestStep) Transfers(includeDisabled bool) []transfer.Record {
	var out []transfer.Record
	for _, t := range s.Config.Transfers {
		if isTrue(t.Disabled) && !includeDisabled {
			continue
		}
		out = append(out, t.Record())
	}
	return out
}

// Record maps the transfer onto the generator's model. The target key is
// derived with transfer.PropertyKey so step-owned targets stay distinct.
func (t TransferConfig) Record() transfer.Record {
	path := strings.TrimSpace(t.SourcePath)
	label := firstNonEmpty(t.Type, t.PathLanguage)
	if label == "" {
		label = "XPATH"
		if path == "" || strings.HasPrefix(path, "$") {
			label = "JSONPATH"
		}
	}
	rec := transfer.Record{
		Name:           strings.TrimSpace(t.Name),
		SourceName:     strings.TrimSpace(t.SourceStep),
		SourceProperty: strings.TrimSpace(t.SourceType),
		SourcePath:     path,
		Language:       transfer.ParseLanguage(label),
		LanguageLabel:  strings.ToUpper(label),
		TargetName:     strings.TrimSpace(t.TargetStep),
	}
	if prop := strings.TrimSpace(t.TargetType); prop != "" {
		rec.TargetPath = transfer.PropertyKey(rec.TargetName, prop)
	}
	return rec
}

// ParseCodes reads a status code list such as "200, 201" or "200;404".
// Tokens that are not numbers are skipped.
func ParseCodes(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	var codes []int
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			codes = append(codes, n)
		}
	}
	return codes
}

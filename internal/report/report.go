// Package report collects the warnings of a project conversion into a
// review document that can be saved as JSON or rendered as Markdown and
// HTML.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/karthiktools/convert2postman/internal/diag"
)

// Report is the review document for one converted project.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"`
	Collection  string    `json:"collection"`
	Summary     Summary   `json:"summary"`
	Entries     []Entry   `json:"entries"`
}

// Summary counts what was converted.
type Summary struct {
	Suites     int `json:"suites"`
	Cases      int `json:"cases"`
	Requests   int `json:"requests"`
	Scripts    int `json:"scripts"`
	Assertions int `json:"assertions"`
	Transfers  int `json:"transfers"`
}

// Entry is one warning with the place it came from.
type Entry struct {
	Location string    `json:"location"`
	Kind     diag.Kind `json:"kind"`
	Source   string    `json:"source,omitempty"`
	Message  string    `json:"message"`
}

// New returns an empty report.
func New(source, collection string) *Report {
	return &Report{
		GeneratedAt: time.Now().UTC(),
		Source:      source,
		Collection:  collection,
		Entries:     []Entry{},
	}
}

// Location joins path parts the way entries display them.
func Location(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " / ")
}

// Add records warnings raised at location.
func (r *Report) Add(location string, ws ...diag.Warning) {
	for _, w := range ws {
		r.Entries = append(r.Entries, Entry{Location: location, Kind: w.Kind, Source: w.Source, Message: w.Message})
	}
}

// Merge appends the entries of other and adds its counts.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Entries = append(r.Entries, other.Entries...)
	r.Summary.Suites += other.Summary.Suites
	r.Summary.Cases += other.Summary.Cases
	r.Summary.Requests += other.Summary.Requests
	r.Summary.Scripts += other.Summary.Scripts
	r.Summary.Assertions += other.Summary.Assertions
	r.Summary.Transfers += other.Summary.Transfers
}

// ByKind counts entries per warning kind.
func (r *Report) ByKind() map[diag.Kind]int {
	counts := map[diag.Kind]int{}
	for _, e := range r.Entries {
		counts[e.Kind]++
	}
	return counts
}

// Clean reports whether nothing needs review.
func (r *Report) Clean() bool {
	return len(r.Entries) == 0
}

// Save writes the report as indented JSON.
func Save(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// Markdown renders the report for human review.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversion report: %s\n\n", r.Collection)
	fmt.Fprintf(&b, "- Source: `%s`\n", r.Source)
	fmt.Fprintf(&b, "- Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Item | Count |\n|---|---:|\n")
	for _, row := range []struct {
		name string
		n    int
	}{
		{"Test suites", r.Summary.Suites},
		{"Test cases", r.Summary.Cases},
		{"Requests", r.Summary.Requests},
		{"Scripts", r.Summary.Scripts},
		{"Assertions", r.Summary.Assertions},
		{"Property transfers", r.Summary.Transfers},
	} {
		fmt.Fprintf(&b, "| %s | %d |\n", row.name, row.n)
	}
	b.WriteString("\n")

	if r.Clean() {
		b.WriteString("## Review\n\nNo items need review.\n")
		return b.String()
	}

	counts := r.ByKind()
	kinds := make([]diag.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Fprintf(&b, "## Review (%d items)\n\n", len(r.Entries))
	for _, k := range kinds {
		fmt.Fprintf(&b, "- %s: %d\n", k, counts[k])
	}
	b.WriteString("\n| Location | Kind | Source | Message |\n|---|---|---|---|\n")
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(e.Location), e.Kind, cell(e.Source), cell(e.Message))
	}
	return b.String()
}

// HTML renders the Markdown form as a standalone page. Raw HTML in messages
// is not passed through.
func (r *Report) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &body); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Conversion report: %s</title>\n", html.EscapeString(r.Collection))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/naming"
	"github.com/karthiktools/convert2postman/internal/postman"
	"github.com/karthiktools/convert2postman/internal/report"
)

// outputs names the files one conversion writes. Empty Environment, Report
// or HTML skips that file.
type outputs struct {
	Collection  string
	Environment string
	Report      string
	HTML        string
}

// defaultOutputs places every file in dir, named after the collection.
func defaultOutputs(dir, name string) outputs {
	base := filepath.Join(dir, naming.FileName(name))
	return outputs{
		Collection:  base + ".postman_collection.json",
		Environment: base + ".postman_environment.json",
		Report:      base + ".report.json",
	}
}

// fill replaces empty fields of o with those of def.
func (o outputs) fill(def outputs) outputs {
	if o.Collection == "" {
		o.Collection = def.Collection
	}
	if o.Environment == "" {
		o.Environment = def.Environment
	}
	if o.Report == "" {
		o.Report = def.Report
	}
	return o
}

// write saves out to the files in o, creating their directories.
func (o outputs) write(out *convert.Output) error {
	for _, path := range []string{o.Collection, o.Environment, o.Report, o.HTML} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	if err := postman.Save(o.Collection, out.Collection); err != nil {
		return err
	}
	if o.Environment != "" {
		if err := postman.Save(o.Environment, out.Environment); err != nil {
			return err
		}
	}
	if o.Report != "" {
		if err := report.Save(o.Report, out.Report); err != nil {
			return err
		}
	}
	if o.HTML != "" {
		html, err := out.Report.HTML()
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		if err := os.WriteFile(o.HTML, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", o.HTML, err)
		}
	}
	return nil
}

// summary is the one-paragraph result printed after a conversion.
func summary(out *convert.Output, o outputs) string {
	s := out.Report.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "  %-12s %s (%d requests in %d cases)\n", "collection", o.Collection, s.Requests, s.Cases)
	if o.Environment != "" {
		fmt.Fprintf(&b, "  %-12s %s\n", "environment", o.Environment)
	}
	if o.Report != "" {
		fmt.Fprintf(&b, "  %-12s %s\n", "report", o.Report)
	}
	if o.HTML != "" {
		fmt.Fprintf(&b, "  %-12s %s\n", "html", o.HTML)
	}
	if out.Report.Clean() {
		b.WriteString("  No items need review.\n")
	} else {
		fmt.Fprintf(&b, "  %d items need review.\n", len(out.Report.Entries))
	}
	return b.String()
}

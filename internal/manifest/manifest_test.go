package manifest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFilename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestLoadYAML(t *testing.T) {
	dir, path := writeManifest(t, `
projects:
  petstore:
    source: soapui/petstore.xml
  Billing API:
    source: /abs/billing.xml
    output: custom/billing.json
settings:
  output_dir: out
  workers: 2
`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(m.Projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(m.Projects))
	}
	if m.Settings.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", m.Settings.Workers)
	}
	if m.Settings.OutputDir != filepath.Join(dir, "out") {
		t.Errorf("output_dir not resolved: %q", m.Settings.OutputDir)
	}
	if m.Settings.ReportDir != m.Settings.OutputDir {
		t.Errorf("report_dir should default to output_dir, got %q", m.Settings.ReportDir)
	}

	p, err := m.Project("petstore")
	if err != nil {
		t.Fatal(err)
	}
	want := Project{
		Source:      filepath.Join(dir, "soapui", "petstore.xml"),
		Output:      filepath.Join(dir, "out", "petstore.postman_collection.json"),
		Environment: filepath.Join(dir, "out", "petstore.postman_environment.json"),
		Report:      filepath.Join(dir, "out", "petstore.report.json"),
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("petstore:\n got %+v\nwant %+v", p, want)
	}

	b := m.Projects["Billing API"]
	if b.Source != "/abs/billing.xml" {
		t.Errorf("absolute source changed: %q", b.Source)
	}
	if b.Output != filepath.Join(dir, "custom", "billing.json") {
		t.Errorf("unexpected output %q", b.Output)
	}
	if b.Environment != filepath.Join(dir, "out", "Billing_API.postman_environment.json") {
		t.Errorf("unexpected environment %q", b.Environment)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir, path := writeManifest(t, "projects:\n  a:\n    source: a.xml\nsettings:\n  report_dir: reports\n")
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if m.Settings.OutputDir != filepath.Join(dir, "postman") {
		t.Errorf("unexpected default output_dir %q", m.Settings.OutputDir)
	}
	if got := m.Projects["a"].Report; got != filepath.Join(dir, "reports", "a.report.json") {
		t.Errorf("unexpected report path %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no projects", "settings:\n  output_dir: x\n", "no projects"},
		{"bad yaml", "projects: [", "parsing manifest"},
		{"missing source", "projects:\n  a: {}\n  b: {}\n", `project "b": source is required`},
		{"negative workers", "projects:\n  a:\n    source: a.xml\nsettings:\n  workers: -1\n", "workers"},
		{"shared output", "projects:\n  a:\n    source: a.xml\n    output: same.json\n  b:\n    source: b.xml\n    output: same.json\n", "also written by"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, path := writeManifest(t, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestProjectNamesSorted(t *testing.T) {
	m := &Manifest{Projects: map[string]Project{"zeta": {}, "alpha": {}, "Mid": {}}}
	got := m.ProjectNames()
	want := []string{"Mid", "alpha", "zeta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProjectNames() = %v, want %v", got, want)
	}
	if _, err := m.Project("nope"); err == nil {
		t.Error("expected error for unknown project")
	}
}

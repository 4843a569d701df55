// Package manifest parses c2p.yaml batch manifests.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/karthiktools/convert2postman/internal/naming"
)

// DefaultFilename is the manifest looked for when none is named.
const DefaultFilename = "c2p.yaml"

// Project defines one SoapUI project to convert.
type Project struct {
	Source      string `yaml:"source"`
	Output      string `yaml:"output"`
	Environment string `yaml:"environment"`
	Report      string `yaml:"report"`
}

// Settings holds batch-wide settings.
type Settings struct {
	OutputDir string `yaml:"output_dir"`
	ReportDir string `yaml:"report_dir"`
	Workers   int    `yaml:"workers"`
}

// Manifest represents a parsed c2p.yaml file.
type Manifest struct {
	Projects map[string]Project `yaml:"projects"`
	Settings Settings           `yaml:"settings"`
}

// Load reads and parses a manifest. Relative paths are resolved against the
// manifest's directory, and missing outputs default to files named after
// the project under settings.output_dir.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if len(m.Projects) == 0 {
		return nil, fmt.Errorf("manifest has no projects defined")
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	// Apply defaults
	if m.Settings.OutputDir == "" {
		m.Settings.OutputDir = "postman"
	}
	m.Settings.OutputDir = resolve(m.Settings.OutputDir)
	if m.Settings.ReportDir == "" {
		m.Settings.ReportDir = m.Settings.OutputDir
	} else {
		m.Settings.ReportDir = resolve(m.Settings.ReportDir)
	}
	if m.Settings.Workers < 0 {
		return nil, fmt.Errorf("settings: workers must not be negative")
	}

	var errs []error
	outputs := map[string]string{}
	for _, name := range m.ProjectNames() {
		p := m.Projects[name]
		if p.Source == "" {
			errs = append(errs, fmt.Errorf("project %q: source is required", name))
			continue
		}
		file := naming.FileName(name)
		p.Source = resolve(p.Source)
		p.Output = defaultPath(resolve(p.Output), m.Settings.OutputDir, file+".postman_collection.json")
		p.Environment = defaultPath(resolve(p.Environment), m.Settings.OutputDir, file+".postman_environment.json")
		p.Report = defaultPath(resolve(p.Report), m.Settings.ReportDir, file+".report.json")

		if other, ok := outputs[p.Output]; ok {
			errs = append(errs, fmt.Errorf("project %q: output %s is also written by %q", name, p.Output, other))
		}
		outputs[p.Output] = name
		m.Projects[name] = p
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return &m, nil
}

func defaultPath(p, dir, file string) string {
	if p != "" {
		return p
	}
	return filepath.Join(dir, file)
}

// Project returns a named project's config, or an error if not found.
func (m *Manifest) Project(name string) (Project, error) {
	p, ok := m.Projects[name]
	if !ok {
		return Project{}, fmt.Errorf("project %q not found in manifest", name)
	}
	return p, nil
}

// ProjectNames returns all project names in deterministic sorted order.
func (m *Manifest) ProjectNames() []string {
	names := make([]string, 0, len(m.Projects))
	for name := range m.Projects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

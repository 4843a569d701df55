package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/karthiktools/convert2postman/internal/config"
	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/lockfile"
	"github.com/karthiktools/convert2postman/internal/logging"
	"github.com/karthiktools/convert2postman/internal/postman"
	"github.com/karthiktools/convert2postman/internal/report"
)

const samplePath = "../../internal/soapui/testdata/petstore-soapui-project.xml"

func TestParseArgs(t *testing.T) {
	t.Setenv("C2P_CONFIG", "")
	tests := []struct {
		raw     []string
		cmd     string
		args    []string
		cfgPath string
	}{
		{nil, "", nil, ""},
		{[]string{"convert", "p.xml"}, "convert", []string{"p.xml"}, ""},
		{[]string{"--config", "c.yaml", "convert", "p.xml", "-o", "x.json"}, "convert", []string{"p.xml", "-o", "x.json"}, "c.yaml"},
		{[]string{"config", "show", "--config", "c.yaml"}, "config", []string{"show"}, "c.yaml"},
	}
	for _, tt := range tests {
		cmd, args, cfgPath := parseArgs(tt.raw)
		if cmd != tt.cmd || !reflect.DeepEqual(args, tt.args) || cfgPath != tt.cfgPath {
			t.Errorf("parseArgs(%q) = %q %q %q, want %q %q %q", tt.raw, cmd, args, cfgPath, tt.cmd, tt.args, tt.cfgPath)
		}
	}

	t.Setenv("C2P_CONFIG", "/env/config.yaml")
	if _, _, cfgPath := parseArgs([]string{"version"}); cfgPath != "/env/config.yaml" {
		t.Errorf("C2P_CONFIG not honoured: %q", cfgPath)
	}
}

func TestParseFlagsInterleaved(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	out := fs.String("o", "", "")
	strict := fs.Bool("strict", false, "")

	pos, err := parseFlags(fs, []string{"a.xml", "-o", "out.json", "b.xml", "--strict"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pos, []string{"a.xml", "b.xml"}) {
		t.Errorf("positionals = %q", pos)
	}
	if *out != "out.json" || !*strict {
		t.Errorf("flags not parsed: o=%q strict=%v", *out, *strict)
	}

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseFlags(fs, []string{"--nope"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadDotenv(t *testing.T) {
	if err := loadDotenv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("C2P_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("C2P_TEST_DOTENV", "")
	os.Unsetenv("C2P_TEST_DOTENV")
	if err := loadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("C2P_TEST_DOTENV"); got != "from-file" {
		t.Errorf("C2P_TEST_DOTENV = %q", got)
	}
}

func TestLoadConfigAppliesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.SaveTo(path, &config.Config{LogLevel: "warn", LogFormat: "json", CacheSize: 8}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("C2P_WORKERS", "3")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "warn" || cfg.Workers != 3 || cfg.CacheSize != 8 {
		t.Errorf("unexpected config %+v", cfg)
	}

	opts := converterOptions(cfg, logging.Discard())
	if opts.Workers != 3 || opts.IncludeDisabled || opts.CacheSize != 8 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestShowConfig(t *testing.T) {
	var buf bytes.Buffer
	if err := showConfig(&buf, config.Default()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"log_level", "library_suites     *library*,*libraries*", "include_disabled   false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConvertOneWritesFiles(t *testing.T) {
	dir := t.TempDir()
	conv := convert.New(nil, convert.Options{LibrarySuites: []string{"*library*"}})

	o := outputs{
		Collection: filepath.Join(dir, "nested", "petstore.json"),
		HTML:       filepath.Join(dir, "html", "report.html"),
	}
	o = o.fill(defaultOutputs(dir, "Petstore"))

	out, err := conv.ConvertFile(context.Background(), samplePath)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.write(out); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := postman.LoadCollection(o.Collection)
	if err != nil {
		t.Fatal(err)
	}
	if c.Info.Name != "Petstore" {
		t.Errorf("collection name = %q", c.Info.Name)
	}
	if _, err := postman.LoadEnvironment(filepath.Join(dir, "Petstore.postman_environment.json")); err != nil {
		t.Error(err)
	}
	r, err := report.Load(filepath.Join(dir, "Petstore.report.json"))
	if err != nil {
		t.Fatal(err)
	}
	if r.Summary.Requests != 4 {
		t.Errorf("report requests = %d", r.Summary.Requests)
	}
	html, err := os.ReadFile(o.HTML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "<table>") {
		t.Error("HTML report has no table")
	}

	s := summary(out, o)
	if !strings.Contains(s, "4 requests in 3 cases") || !strings.Contains(s, "items need review") {
		t.Errorf("unexpected summary:\n%s", s)
	}
}

func TestConvertOneDefaultsBesideProject(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	project := filepath.Join(dir, "petstore-soapui-project.xml")
	if err := os.WriteFile(project, data, 0o644); err != nil {
		t.Fatal(err)
	}

	conv := convert.New(nil, convert.Options{})
	_, o, err := convertOne(context.Background(), conv, project, outputs{})
	if err != nil {
		t.Fatal(err)
	}
	want := defaultOutputs(dir, "Petstore")
	if o != want {
		t.Errorf("outputs = %+v, want %+v", o, want)
	}
	for _, f := range []string{want.Collection, want.Environment, want.Report} {
		if _, err := os.Stat(f); err != nil {
			t.Error(err)
		}
	}

	if _, _, err := convertOne(context.Background(), conv, filepath.Join(dir, "missing.xml"), outputs{}); err == nil {
		t.Error("expected error for missing project")
	}
}

func TestBatchSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	src, err := filepath.Abs(samplePath)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "c2p.yaml")
	if err := os.WriteFile(path, []byte("projects:\n  petstore:\n    source: "+src+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "missing-config.yaml")

	if err := cmdBatch(context.Background(), cfgPath, []string{path}); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	output := filepath.Join(dir, "postman", "petstore.postman_collection.json")
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("collection not written: %v", err)
	}
	lock, err := lockfile.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	first := lock.Projects["petstore"]
	if first.Output != output || first.ReviewItems == 0 {
		t.Errorf("unexpected lock entry %+v", first)
	}

	if err := os.Remove(filepath.Join(dir, "postman", "petstore.report.json")); err != nil {
		t.Fatal(err)
	}
	if err := cmdBatch(context.Background(), cfgPath, []string{path}); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "postman", "petstore.report.json")); err == nil {
		t.Error("unchanged project was converted again")
	}

	if err := cmdBatch(context.Background(), cfgPath, []string{path, "--force"}); err != nil {
		t.Fatalf("forced batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "postman", "petstore.report.json")); err != nil {
		t.Error("--force did not convert again")
	}
}

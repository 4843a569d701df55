package lockfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	lf := New("1.2.0")
	lf.Record("petstore", LockedProject{
		Source:      "soapui/petstore.xml",
		Checksum:    "sha256:abc123",
		Output:      "postman/petstore.postman_collection.json",
		ConvertedAt: now,
		ReviewItems: 3,
	})

	if err := Save(dir, lf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Verify it's valid JSON
	data, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		t.Fatalf("lock file not created: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.GeneratedAt.IsZero() {
		t.Error("generated_at not set")
	}
	if loaded.Version != "1.2.0" {
		t.Errorf("version = %q", loaded.Version)
	}
	p := loaded.Projects["petstore"]
	if p.Checksum != "sha256:abc123" || p.ReviewItems != 3 || !p.ConvertedAt.Equal(now) {
		t.Errorf("unexpected entry %+v", p)
	}
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing lock file")
	}
	if Exists(dir) {
		t.Error("Exists() = true for empty dir")
	}

	lf, err := LoadOrNew(dir, "dev")
	if err != nil {
		t.Fatal(err)
	}
	if lf.Version != "dev" || len(lf.Projects) != 0 {
		t.Errorf("unexpected lock file %+v", lf)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, Filename), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := LoadOrNew(dir, "dev"); err == nil {
		t.Error("LoadOrNew should report a corrupt lock file")
	}
}

func TestLoadOrNewDropsOtherVersions(t *testing.T) {
	dir := t.TempDir()
	lf := New("1.0.0")
	lf.Record("a", LockedProject{Checksum: "sha256:1"})
	if err := Save(dir, lf); err != nil {
		t.Fatal(err)
	}

	same, err := LoadOrNew(dir, "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(same.Projects) != 1 {
		t.Errorf("same version lost entries: %+v", same.Projects)
	}

	other, err := LoadOrNew(dir, "2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(other.Projects) != 0 || other.Version != "2.0.0" {
		t.Errorf("other version kept entries: %+v", other)
	}
}

func TestChecksumAndUpToDate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "p.xml")
	out := filepath.Join(dir, "p.json")
	if err := os.WriteFile(src, []byte("<soapui-project/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	sum, err := Checksum(src)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sum, "sha256:") || len(sum) != len("sha256:")+64 {
		t.Errorf("unexpected checksum %q", sum)
	}

	lf := New("dev")
	if lf.UpToDate("p", sum, out) {
		t.Error("unknown project reported up to date")
	}
	lf.Record("p", LockedProject{Source: src, Checksum: sum, Output: out})
	if lf.UpToDate("p", sum, out) {
		t.Error("missing output reported up to date")
	}
	if err := os.WriteFile(out, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !lf.UpToDate("p", sum, out) {
		t.Error("expected up to date")
	}
	if lf.UpToDate("p", "sha256:other", out) {
		t.Error("changed source reported up to date")
	}
	if lf.Projects["p"].ConvertedAt.IsZero() {
		t.Error("Record should stamp converted_at")
	}

	if _, err := Checksum(filepath.Join(dir, "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

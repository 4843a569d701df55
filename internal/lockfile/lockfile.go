// Package lockfile reads and writes c2p-lock.json, which records what a
// batch run converted so unchanged projects can be skipped next time.
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const Filename = "c2p-lock.json"

// LockFile represents the contents of c2p-lock.json.
type LockFile struct {
	GeneratedAt time.Time `json:"generated_at"`
	// Version is the c2p version that produced the outputs. A different
	// version invalidates every entry.
	Version  string                   `json:"version"`
	Projects map[string]LockedProject `json:"projects"`
}

// LockedProject captures the last conversion of one manifest project.
type LockedProject struct {
	Source      string    `json:"source"`
	Checksum    string    `json:"checksum"`
	Output      string    `json:"output"`
	ConvertedAt time.Time `json:"converted_at"`
	ReviewItems int       `json:"review_items"`
}

// New returns an empty lock file for version.
func New(version string) *LockFile {
	return &LockFile{Version: version, Projects: map[string]LockedProject{}}
}

// Load reads and parses a lock file from the given directory.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, Filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lf LockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Filename, err)
	}
	if lf.Projects == nil {
		lf.Projects = map[string]LockedProject{}
	}
	return &lf, nil
}

// LoadOrNew loads the lock file in dir, or returns an empty one for version
// when none exists or it was written by another version.
func LoadOrNew(dir, version string) (*LockFile, error) {
	lf, err := Load(dir)
	switch {
	case os.IsNotExist(err):
		return New(version), nil
	case err != nil:
		return nil, err
	case lf.Version != version:
		return New(version), nil
	}
	return lf, nil
}

// Save writes the lock file to the given directory with indented JSON.
func Save(dir string, lf *LockFile) error {
	lf.GeneratedAt = time.Now().UTC()
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", Filename, err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, Filename)
	return os.WriteFile(path, data, 0o644)
}

// Exists returns true if a lock file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, Filename))
	return err == nil
}

// Checksum returns the "sha256:<hex>" digest of the file at path.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// UpToDate reports whether name was last converted from a source with
// checksum into output, and output still exists.
func (lf *LockFile) UpToDate(name, checksum, output string) bool {
	p, ok := lf.Projects[name]
	if !ok || p.Checksum != checksum || p.Output != output {
		return false
	}
	_, err := os.Stat(output)
	return err == nil
}

// Record stores the result of converting name.
func (lf *LockFile) Record(name string, p LockedProject) {
	if p.ConvertedAt.IsZero() {
		p.ConvertedAt = time.Now().UTC()
	}
	lf.Projects[name] = p
}

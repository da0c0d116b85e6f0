// Package lockfile implements locsync.lock, which tracks MD5 checksums of
// the locale files of every bundle as they were after the last export or
// import. A locale file whose content no longer matches was edited by hand
// since, and import refuses to overwrite it unless forced.
//
// The lock file is stored in the project root as locsync.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "locsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the locsync.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // bundle -> file -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
	dir  string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
		dir:       dir,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d", path, lf.Version)
	}

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// FileKey is the lock file key of a locale file: its slash-separated path
// relative to the lock file directory when possible.
func (lf *LockFile) FileKey(path string) string {
	if lf.dir != "" && filepath.IsAbs(path) {
		if absDir, err := filepath.Abs(lf.dir); err == nil {
			if rel, err := filepath.Rel(absDir, path); err == nil && !strings.HasPrefix(rel, "..") {
				path = rel
			}
		}
	}
	return filepath.ToSlash(filepath.Clean(path))
}

// Record stores the checksum of a locale file after locsync read or wrote it.
func (lf *LockFile) Record(bundle, path, content string) {
	key := lf.FileKey(path)

	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[bundle] == nil {
		lf.Checksums[bundle] = make(map[string]string)
	}
	lf.Checksums[bundle][key] = Hash(content)
}

// Modified reports whether a locale file changed since it was recorded.
// Files never recorded are not considered modified.
func (lf *LockFile) Modified(bundle, path, content string) bool {
	key := lf.FileKey(path)

	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[bundle][key]
	if !ok {
		return false
	}
	return old != Hash(content)
}

// Clean removes entries of bundle whose files are not in paths. This
// prevents stale entries from accumulating when locale files are deleted.
func (lf *LockFile) Clean(bundle string, paths []string) {
	valid := make(map[string]bool, len(paths))
	for _, p := range paths {
		valid[lf.FileKey(p)] = true
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[bundle]
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// RemoveBundle removes all checksums of a bundle.
func (lf *LockFile) RemoveBundle(bundle string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, bundle)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of bundles and total files in the lock file.
func (lf *LockFile) Stats() (bundles, files int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	bundles = len(lf.Checksums)
	for _, m := range lf.Checksums {
		files += len(m)
	}
	return
}

// Bundles returns the sorted list of bundles in the lock file.
func (lf *LockFile) Bundles() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	bundles := make([]string, 0, len(lf.Checksums))
	for b := range lf.Checksums {
		bundles = append(bundles, b)
	}
	sort.Strings(bundles)
	return bundles
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	bundles, files := lf.Stats()
	if bundles == 0 {
		return "empty"
	}

	var parts []string
	for _, b := range lf.Bundles() {
		lf.mu.Lock()
		n := len(lf.Checksums[b])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d files", b, n))
	}
	return fmt.Sprintf("%d bundles, %d files (%s)", bundles, files, strings.Join(parts, ", "))
}

// Package roundtrip synchronizes the master file with the locale files of
// each bundle, in both directions.
//
// Export folds every locale file of a bundle into the master; Import
// regenerates the locale files (and the bundle's type declarations) from
// the master. AddKey and Lookup work on the locale files directly.
//
// All work is sequential. A locale file that cannot be read or parsed is
// logged and skipped; a failed master write fails the whole operation.
package roundtrip

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/lockfile"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/storage"
	"github.com/minios-linux/locsync/table"
)

// SheetName names the worksheet of a new spreadsheet master when the
// bundle name is blank.
const SheetName = "Translations"

// identifier matches keys that can be written unquoted.
var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Syncer runs round-trip operations for one project.
type Syncer struct {
	Config *config.Config
	// Root is the project root; relative bundle dirs and master paths are
	// resolved against it.
	Root string
	Log  zerolog.Logger
	// Lock tracks locale file checksums. Nil disables change detection.
	Lock *lockfile.LockFile
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// New returns a Syncer for cfg rooted at root, with the lock file of root
// loaded.
func New(cfg *config.Config, root string, log zerolog.Logger) (*Syncer, error) {
	lock, err := lockfile.Load(root)
	if err != nil {
		return nil, err
	}
	return &Syncer{Config: cfg, Root: root, Log: log, Lock: lock}, nil
}

// MasterLocation is where the master file is read and written: the
// configured location, joined with Root unless it is absolute or a URL.
func (s *Syncer) MasterLocation() string {
	m := s.Config.Master
	if storage.IsURL(m) || filepath.IsAbs(m) {
		return m
	}
	return filepath.Join(s.Root, m)
}

// Dir is the absolute or Root-relative directory of a bundle.
func (s *Syncer) Dir(b config.Bundle) string {
	if filepath.IsAbs(b.Dir) {
		return b.Dir
	}
	return filepath.Join(s.Root, b.Dir)
}

// LocaleFiles lists the locale files of a bundle.
func (s *Syncer) LocaleFiles(b config.Bundle) ([]string, error) {
	files, err := extract.FindLocaleFiles(s.Dir(b), s.Config.Extension)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", b.Name, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("bundle %s: %w in %s", b.Name, ErrNoLocaleFiles, s.Dir(b))
	}
	return files, nil
}

// Lookup returns the value of key in every locale file of the named
// bundle that defines it, by locale.
func (s *Syncer) Lookup(bundle, key string) (map[string]string, error) {
	b, err := s.Config.Bundle(bundle)
	if err != nil {
		return nil, err
	}
	files, err := s.LocaleFiles(b)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.Log.Warn().Err(err).Str("file", path).Msg("skipping unreadable locale file")
			continue
		}
		if v, ok := extract.Lookup(string(data), key); ok {
			values[strings.ToLower(extract.LocaleName(path))] = v
		}
	}
	return values, nil
}

func (s *Syncer) tableOptions() table.Options {
	return table.Options{Delimiter: s.Config.Delim(), BOM: s.Config.BOM}
}

func (s *Syncer) mergeOptions() merge.Options {
	return merge.Options{UseComment: s.Config.Comment, UseTimestamp: s.Config.Timestamp, Now: s.Now}
}

func (s *Syncer) record(bundle, path, content string) {
	if s.Lock != nil {
		s.Lock.Record(bundle, path, content)
	}
}

func (s *Syncer) saveLock() error {
	if s.Lock == nil {
		return nil
	}
	if err := s.Lock.Save(); err != nil {
		return fmt.Errorf("saving lock file: %w", err)
	}
	return nil
}

// writeText replaces path with content in one atomic write.
func writeText(path, content string) error {
	return table.WriteAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

// splitText splits text into lines and reports the line ending to join
// them with.
func splitText(text string) ([]string, string) {
	if strings.Contains(text, "\r\n") {
		return strings.Split(text, "\r\n"), "\r\n"
	}
	return strings.Split(text, "\n"), "\n"
}

func formatKey(key string) string {
	if identifier.MatchString(key) {
		return key
	}
	return extract.Quote(key)
}

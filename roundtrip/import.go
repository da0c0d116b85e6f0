package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/scanner"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/storage"
)

// ImportResult summarizes an Import.
type ImportResult struct {
	// Written are the locale files created or rewritten.
	Written []string
	// Unchanged are locale files whose content already matched the master.
	Unchanged []string
	// Skipped are locale files left alone: edited since the last sync, or
	// failing to write.
	Skipped []string
	// Declared counts the keys added to type-declaration files.
	Declared int
}

// Import regenerates the locale files of bundles from the master file. A
// locale file edited since the last sync is kept unless force is set.
func (s *Syncer) Import(ctx context.Context, bundles []config.Bundle, force bool) (*ImportResult, error) {
	location := s.MasterLocation()
	t, err := storage.Load(ctx, location, s.tableOptions())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMasterNotFound, location)
		}
		return nil, err
	}
	defer storage.Close(t)

	sch, err := schema.Resolve(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}

	names := make([]string, len(bundles))
	for i, b := range bundles {
		names[i] = b.Name
	}
	records := schema.Records(t, sch, names...)

	locales := make([]string, 0, len(records))
	for l := range records {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	res := &ImportResult{}
	for _, b := range bundles {
		if _, ok := sch.Bundle(b.Name); !ok {
			s.Log.Warn().Str("bundle", b.Name).Msg("master file has no column for bundle")
			continue
		}

		dir := s.Dir(b)
		var keys []string
		seen := make(map[string]bool)

		for _, loc := range locales {
			recs := schema.ForBundle(records[loc], b.Name)
			if len(recs) == 0 {
				continue
			}
			path := filepath.Join(dir, loc+"."+s.Config.Extension)
			s.writeLocale(b.Name, path, RenderLocale(recs), force, res)

			for _, r := range recs {
				if !seen[r.Key] {
					seen[r.Key] = true
					keys = append(keys, r.Key)
				}
			}
		}

		res.Declared += s.declare(dir, keys)
	}

	if err := s.saveLock(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Syncer) writeLocale(bundle, path, content string, force bool, res *ImportResult) {
	if data, err := os.ReadFile(path); err == nil {
		existing := string(data)
		if existing == content {
			s.record(bundle, path, content)
			res.Unchanged = append(res.Unchanged, path)
			return
		}
		if !force && s.Lock != nil && s.Lock.Modified(bundle, path, existing) {
			s.Log.Warn().Str("file", path).Msg("locale file changed since last sync, skipping (use --force to overwrite)")
			res.Skipped = append(res.Skipped, path)
			return
		}
	}

	if err := writeText(path, content); err != nil {
		s.Log.Error().Err(err).Str("file", path).Msg("writing locale file")
		res.Skipped = append(res.Skipped, path)
		return
	}
	s.record(bundle, path, content)
	res.Written = append(res.Written, path)
}

// declare adds the keys missing from the type-declaration file of dir in
// one write and returns how many were added. Nothing happens when dir has
// no declaration file; more than one is ambiguous and skipped.
func (s *Syncer) declare(dir string, keys []string) int {
	files, err := extract.FindDeclarations(dir)
	if err != nil || len(files) == 0 {
		return 0
	}
	if len(files) > 1 {
		s.Log.Warn().Str("dir", dir).Strs("files", files).Msg("more than one type-declaration file, skipping")
		return 0
	}

	path := files[0]
	data, err := os.ReadFile(path)
	if err != nil {
		s.Log.Warn().Err(err).Str("file", path).Msg("skipping unreadable type-declaration file")
		return 0
	}
	lines, eol := splitText(string(data))

	declared := make(map[string]bool)
	for _, k := range scanner.Keys(lines, scanner.Declaration) {
		declared[k] = true
	}

	added := 0
	for _, key := range keys {
		if declared[key] {
			continue
		}
		if !identifier.MatchString(key) || strings.Contains(key, "$") {
			s.Log.Debug().Str("key", key).Msg("key cannot be declared, skipping")
			continue
		}
		out, ok := scanner.Insert(lines, key, key+": string;", scanner.Declaration)
		if !ok {
			s.Log.Warn().Str("file", path).Msg("no interface declaration found, skipping")
			return 0
		}
		lines = out
		declared[key] = true
		added++
	}

	if added == 0 {
		return 0
	}
	if err := writeText(path, strings.Join(lines, eol)); err != nil {
		s.Log.Error().Err(err).Str("file", path).Msg("writing type-declaration file")
		return 0
	}
	s.Log.Debug().Str("file", path).Int("added", added).Msg("declarations updated")
	return added
}

// RenderLocale returns the content of a locale file holding records, in
// order.
func RenderLocale(records []schema.Record) string {
	entries := make([]string, len(records))
	for i, r := range records {
		entries[i] = formatKey(r.Key) + ": " + extract.Quote(r.Label)
	}
	return "define([], function() {\n  return {\n    " +
		strings.Join(entries, ",\n    ") +
		"\n  }\n});"
}

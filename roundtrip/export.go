package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/minios-linux/locsync/config"
	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/merge"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/storage"
	"github.com/minios-linux/locsync/table"
)

// ExportResult summarizes an Export.
type ExportResult struct {
	Bundle string
	// Created is true when the master file did not exist before.
	Created bool
	// Files are the locale files merged into the master.
	Files []string
	// Skipped are locale files that were unreadable or had no pairs.
	Skipped   []string
	Inserted  int
	Updated   int
	Conflicts []merge.Conflict
}

// Export merges every locale file of bundle into the master file and
// writes the master once at the end.
func (s *Syncer) Export(ctx context.Context, b config.Bundle) (*ExportResult, error) {
	files, err := s.LocaleFiles(b)
	if err != nil {
		return nil, err
	}

	locales := make([]string, len(files))
	for i, f := range files {
		locales[i] = strings.ToLower(extract.LocaleName(f))
	}

	location := s.MasterLocation()
	res := &ExportResult{Bundle: b.Name}

	t, err := storage.Load(ctx, location, s.tableOptions())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.Log.Info().Str("master", location).Msg("creating master file")
		t = newMaster(location, locales, b.Name, s.Config)
		res.Created = true
	case err != nil:
		return nil, err
	case t.RowCount() == 0:
		_ = storage.Close(t)
		t = newMaster(location, locales, b.Name, s.Config)
	default:
		if err := ensureColumns(t, locales, b.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", location, err)
		}
	}

	defer func() { _ = storage.Close(t) }()

	opts := s.mergeOptions()
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.Log.Warn().Err(err).Str("file", path).Msg("skipping unreadable locale file")
			res.Skipped = append(res.Skipped, path)
			continue
		}
		content := string(data)

		pairs := extract.Pairs(content)
		if len(pairs) == 0 {
			s.Log.Warn().Str("file", path).Msg("no translations found, skipping")
			res.Skipped = append(res.Skipped, path)
			continue
		}

		r, err := merge.Update(t, pairs, locales[i], b.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", location, err)
		}
		for _, c := range r.Conflicts {
			s.Log.Warn().
				Str("key", c.Key).
				Str("locale", c.Locale).
				Str("master", c.Existing).
				Str("file", c.Incoming).
				Msg("conflicting value, keeping the master")
		}
		s.Log.Debug().Str("file", path).Int("inserted", r.Inserted).Int("updated", r.Updated).Msg("merged")

		res.Files = append(res.Files, path)
		res.Inserted += r.Inserted
		res.Updated += r.Updated
		res.Conflicts = append(res.Conflicts, r.Conflicts...)
		s.record(b.Name, path, content)
	}

	if err := storage.Save(ctx, location, t, s.tableOptions()); err != nil {
		return nil, fmt.Errorf("writing master file: %w", err)
	}

	if s.Lock != nil {
		s.Lock.Clean(b.Name, files)
	}
	if err := s.saveLock(); err != nil {
		return nil, err
	}
	return res, nil
}

func newMaster(location string, locales []string, bundle string, cfg *config.Config) table.Store {
	header := schema.Header(locales, bundle, cfg.Comment, cfg.Timestamp)
	sheet := strings.TrimSpace(bundle)
	if sheet == "" {
		sheet = SheetName
	}
	return storage.NewStore(location, [][]string{header}, sheet)
}

// ensureColumns appends the bundle and locale columns an existing master
// lacks.
func ensureColumns(t table.Store, locales []string, bundle string) error {
	s, err := schema.Resolve(t)
	if err != nil {
		return err
	}
	if _, ok := s.Bundle(bundle); !ok {
		t.AppendColumn(bundle)
	}
	for _, l := range locales {
		if _, ok := s.Locale(l); !ok {
			t.AppendColumn(schema.LocaleLabel(l))
			s.Locales = append(s.Locales, schema.Column{Name: l})
		}
	}
	return nil
}

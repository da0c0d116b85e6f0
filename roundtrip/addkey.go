package roundtrip

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/scanner"
)

// AddKeyResult summarizes an AddKey.
type AddKeyResult struct {
	// Updated are the files the key was added to.
	Updated []string
	// Skipped are files that already define the key or have no scope to
	// insert into.
	Skipped []string
	// Export is the result of the automatic export, when enabled.
	Export *ExportResult
}

// AddKey inserts key with value into every locale file of the named bundle
// and declares it in the bundle's type-declaration file, each at its
// sorted position.
func (s *Syncer) AddKey(ctx context.Context, bundle, key, value string) (*AddKeyResult, error) {
	if !identifier.MatchString(key) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	b, err := s.Config.Bundle(bundle)
	if err != nil {
		return nil, err
	}
	files, err := s.LocaleFiles(b)
	if err != nil {
		return nil, err
	}

	res := &AddKeyResult{}
	entry := key + ": " + extract.Quote(value) + ","
	for _, path := range files {
		if content, ok := s.insertEntry(path, key, entry, scanner.ObjectLiteral, res); ok {
			s.record(b.Name, path, content)
		}
	}

	decls, err := extract.FindDeclarations(s.Dir(b))
	switch {
	case err != nil || len(decls) == 0:
	case len(decls) > 1:
		s.Log.Warn().Str("dir", s.Dir(b)).Strs("files", decls).Msg("more than one type-declaration file, skipping")
	case strings.Contains(key, "$"):
		s.Log.Debug().Str("key", key).Msg("key cannot be declared, skipping")
	default:
		s.insertEntry(decls[0], key, key+": string;", scanner.Declaration, res)
	}

	if err := s.saveLock(); err != nil {
		return nil, err
	}

	if s.Config.AutoExport && len(res.Updated) > 0 {
		exp, err := s.Export(ctx, b)
		if err != nil {
			return res, fmt.Errorf("auto export: %w", err)
		}
		res.Export = exp
	}
	return res, nil
}

// insertEntry adds line for key to the file at path and returns the new
// content when the file was written.
func (s *Syncer) insertEntry(path, key, line string, p scanner.Patterns, res *AddKeyResult) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.Log.Warn().Err(err).Str("file", path).Msg("skipping unreadable file")
		res.Skipped = append(res.Skipped, path)
		return "", false
	}
	lines, eol := splitText(string(data))

	for _, k := range scanner.Keys(lines, p) {
		if k == key {
			s.Log.Warn().Str("file", path).Str("key", key).Msg("key already exists, skipping")
			res.Skipped = append(res.Skipped, path)
			return "", false
		}
	}

	pos := scanner.InsertPosition(lines, key, p)
	out, ok := scanner.Insert(lines, key, line, p)
	if !ok {
		s.Log.Warn().Str("file", path).Msg("no block to insert into, skipping")
		res.Skipped = append(res.Skipped, path)
		return "", false
	}

	// Object literal entries are comma-separated; the entry now followed
	// by the new one may have been the last.
	if p == scanner.ObjectLiteral {
		prev := strings.TrimRight(out[pos], " \t")
		if p.Entry.MatchString(prev) && !p.Start.MatchString(prev) && !strings.HasSuffix(prev, ",") {
			out[pos] = prev + ","
		}
	}

	content := strings.Join(out, eol)
	if err := writeText(path, content); err != nil {
		s.Log.Error().Err(err).Str("file", path).Msg("writing file")
		res.Skipped = append(res.Skipped, path)
		return "", false
	}
	res.Updated = append(res.Updated, path)
	return content, true
}

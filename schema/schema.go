// Package schema classifies the header row of a master file.
//
// Column roles are inferred from the header labels alone:
//
//	key, comment, timestamp   reserved labels (case-insensitive)
//	locale: <tag>, xx-xx      locale columns
//	anything else             bundle columns holding the presence marker
package schema

import (
	"regexp"
	"strings"

	"github.com/minios-linux/locsync/table"
)

// Reserved header labels.
const (
	LabelKey       = "key"
	LabelComment   = "comment"
	LabelTimestamp = "timestamp"

	// LocalePrefix introduces a locale column whose tag does not fit the
	// short xx-xx form, e.g. "locale: zh-hans-cn".
	LocalePrefix = "locale:"

	// Marker in a bundle column means the key is used by that bundle.
	Marker = "x"
)

var shortLocale = regexp.MustCompile(`^[a-z]{2}-[a-z]{2}$`)

// Column is a named header cell.
type Column struct {
	Name  string
	Index int
}

// Schema is the role of every header column. Comment and Timestamp are -1
// when the master has no such column.
type Schema struct {
	Key       int
	Comment   int
	Timestamp int
	Locales   []Column
	Bundles   []Column
}

// Resolve reads the header row of t. The first key, comment and timestamp
// labels win; later duplicates are ignored.
func Resolve(t table.Store) (*Schema, error) {
	if t.RowCount() == 0 {
		return nil, ErrEmpty
	}

	s := &Schema{Key: -1, Comment: -1, Timestamp: -1}

	// One past the last column reads as "" and is skipped like any blank cell.
	for col := 0; col <= t.ColCount(); col++ {
		label := strings.TrimSpace(t.Value(0, col))
		if label == "" {
			continue
		}

		switch strings.ToLower(label) {
		case LabelKey:
			if s.Key < 0 {
				s.Key = col
			}
			continue
		case LabelComment:
			if s.Comment < 0 {
				s.Comment = col
			}
			continue
		case LabelTimestamp:
			if s.Timestamp < 0 {
				s.Timestamp = col
			}
			continue
		}

		if name, ok := LocaleName(label); ok {
			if name != "" {
				s.Locales = append(s.Locales, Column{Name: name, Index: col})
			}
			continue
		}
		s.Bundles = append(s.Bundles, Column{Name: label, Index: col})
	}

	if s.Key < 0 {
		return nil, ErrMissingKey
	}
	return s, nil
}

// LocaleName reports whether a header label names a locale column and
// returns the lower-cased locale tag.
func LocaleName(label string) (string, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	if tag, ok := strings.CutPrefix(label, LocalePrefix); ok {
		return strings.TrimSpace(tag), true
	}
	if shortLocale.MatchString(label) {
		return label, true
	}
	return "", false
}

// LocaleLabel is the header label for a new locale column.
func LocaleLabel(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if shortLocale.MatchString(locale) {
		return locale
	}
	return LocalePrefix + " " + locale
}

// Locale finds the column of a locale, ignoring case.
func (s *Schema) Locale(name string) (Column, bool) {
	return find(s.Locales, name)
}

// Bundle finds the presence column of a bundle, ignoring case.
func (s *Schema) Bundle(name string) (Column, bool) {
	return find(s.Bundles, name)
}

func find(cols []Column, name string) (Column, bool) {
	name = strings.TrimSpace(name)
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{Index: -1}, false
}

// KeyLess orders keys the way master rows are sorted: case-insensitive
// lexicographic.
func KeyLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// IsPresent reports whether a bundle cell holds the presence marker.
func IsPresent(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), Marker)
}

// Header builds the header row of a new master file.
func Header(locales []string, bundle string, useComment, useTimestamp bool) []string {
	header := []string{LabelKey}
	for _, l := range locales {
		header = append(header, LocaleLabel(l))
	}
	header = append(header, bundle)
	if useComment {
		header = append(header, LabelComment)
	}
	if useTimestamp {
		header = append(header, LabelTimestamp)
	}
	return header
}

// Package merge folds extracted locale pairs into a master table.
//
// Rules, per pair:
//   - an existing row gets the value only where its locale cell is empty;
//     a different non-empty value is reported as a conflict and kept
//   - the bundle cell of an existing row is marked when empty
//   - a new key gets a row at its sorted position
//
// Timestamps, when enabled, are written only to rows that actually changed.
package merge

import (
	"fmt"
	"time"

	"github.com/minios-linux/locsync/extract"
	"github.com/minios-linux/locsync/schema"
	"github.com/minios-linux/locsync/table"
)

// TimestampLayout is the format of timestamp cells, always in UTC.
const TimestampLayout = "2006-01-02T15:04:05"

// Options selects the optional master columns.
type Options struct {
	// UseComment adds a comment column to masters that lack one.
	UseComment bool
	// UseTimestamp adds a timestamp column and stamps changed rows.
	UseTimestamp bool
	// Now overrides the clock; time.Now when nil.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Conflict is a locale value that was not merged because the master
// already holds a different one.
type Conflict struct {
	Key      string
	Locale   string
	Existing string
	Incoming string
}

// Result summarizes an Update.
type Result struct {
	Inserted  int
	Updated   int
	Conflicts []Conflict
}

// Update merges pairs extracted from the locale file of locale into t and
// marks every merged key as used by bundle. An empty table is left alone.
func Update(t table.Store, pairs []extract.Pair, locale, bundle string, opts Options) (*Result, error) {
	res := &Result{}
	if t.RowCount() == 0 {
		return res, nil
	}

	s, err := schema.Resolve(t)
	if err != nil {
		return nil, err
	}
	if migrate(t, s, opts) {
		if s, err = schema.Resolve(t); err != nil {
			return nil, err
		}
	}

	var stamp string
	if opts.UseTimestamp && s.Timestamp >= 0 {
		stamp = opts.now().UTC().Format(TimestampLayout)
	}

	m := &merger{t: t, s: s, stamp: stamp, res: res}
	m.locale, _ = s.Locale(locale)
	m.bundle, _ = s.Bundle(bundle)
	m.localeName = locale

	for _, p := range pairs {
		if row := FindRow(t, s.Key, p.Key); row > 0 {
			m.update(row, p)
		} else {
			m.insert(p)
		}
		if err := table.Err(t); err != nil {
			return nil, fmt.Errorf("merging %s: %w", p.Key, err)
		}
	}
	return res, nil
}

// migrate appends the comment and timestamp columns newly enabled in opts.
// It reports whether the header changed.
func migrate(t table.Store, s *schema.Schema, opts Options) bool {
	changed := false
	if opts.UseComment && s.Comment < 0 {
		t.AppendColumn(schema.LabelComment)
		changed = true
	}
	if opts.UseTimestamp && s.Timestamp < 0 {
		t.AppendColumn(schema.LabelTimestamp)
		changed = true
	}
	return changed
}

type merger struct {
	t          table.Store
	s          *schema.Schema
	locale     schema.Column
	bundle     schema.Column
	localeName string
	stamp      string
	res        *Result
}

func (m *merger) update(row int, p extract.Pair) {
	modified := false

	if m.locale.Index >= 0 {
		switch existing := m.t.Value(row, m.locale.Index); {
		case existing == "":
			m.t.SetValue(row, m.locale.Index, p.Value)
			modified = true
		case existing != p.Value:
			m.res.Conflicts = append(m.res.Conflicts, Conflict{
				Key:      p.Key,
				Locale:   m.localeName,
				Existing: existing,
				Incoming: p.Value,
			})
		}
	}

	if m.bundle.Index >= 0 && m.t.Value(row, m.bundle.Index) == "" {
		m.t.SetValue(row, m.bundle.Index, schema.Marker)
		modified = true
	}

	if modified {
		if m.stamp != "" {
			m.t.SetValue(row, m.s.Timestamp, m.stamp)
		}
		m.res.Updated++
	}
}

func (m *merger) insert(p extract.Pair) {
	row := InsertRow(m.t, m.s.Key, p.Key)
	m.t.AddRow(row)

	m.t.SetValue(row, m.s.Key, p.Key)
	if m.locale.Index >= 0 {
		m.t.SetValue(row, m.locale.Index, p.Value)
	}
	if m.bundle.Index >= 0 {
		m.t.SetValue(row, m.bundle.Index, schema.Marker)
	}
	if m.stamp != "" {
		m.t.SetValue(row, m.s.Timestamp, m.stamp)
	}
	m.res.Inserted++
}

// FindRow returns the data row whose key cell equals key, or -1.
func FindRow(t table.Store, keyCol int, key string) int {
	for row := 1; row < t.RowCount(); row++ {
		if t.Value(row, keyCol) == key {
			return row
		}
	}
	return -1
}

// InsertRow returns the row a new key is inserted at: right after the
// last data row whose key sorts before it, or row 1.
func InsertRow(t table.Store, keyCol int, key string) int {
	at := 1
	for row := 1; row < t.RowCount(); row++ {
		if k := t.Value(row, keyCol); k != "" && schema.KeyLess(k, key) {
			at = row + 1
		}
	}
	return at
}

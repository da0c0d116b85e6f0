package schema

import (
	"strings"

	"github.com/minios-linux/locsync/table"
)

// Record is one translation of a key for one locale, attached to a bundle
// that uses it.
type Record struct {
	Key       string
	Label     string
	Bundle    string
	Comment   string
	Timestamp string
}

// Records groups the translations of t by locale. A row contributes a
// record to every locale for every selected bundle whose column holds the
// presence marker; no bundles selects all of them. Rows keep master order.
func Records(t table.Store, s *Schema, bundles ...string) map[string][]Record {
	selected := func(name string) bool {
		if len(bundles) == 0 {
			return true
		}
		for _, b := range bundles {
			if strings.EqualFold(b, name) {
				return true
			}
		}
		return false
	}

	out := make(map[string][]Record)
	for row := 1; row < t.RowCount(); row++ {
		key := strings.TrimSpace(t.Value(row, s.Key))
		if key == "" {
			continue
		}

		var comment, stamp string
		if s.Comment >= 0 {
			comment = t.Value(row, s.Comment)
		}
		if s.Timestamp >= 0 {
			stamp = t.Value(row, s.Timestamp)
		}

		for _, loc := range s.Locales {
			for _, b := range s.Bundles {
				if !selected(b.Name) || !IsPresent(t.Value(row, b.Index)) {
					continue
				}
				out[loc.Name] = append(out[loc.Name], Record{
					Key:       key,
					Label:     t.Value(row, loc.Index),
					Bundle:    b.Name,
					Comment:   comment,
					Timestamp: stamp,
				})
			}
		}
	}
	return out
}

// ForBundle filters records down to one bundle.
func ForBundle(records []Record, bundle string) []Record {
	var out []Record
	for _, r := range records {
		if strings.EqualFold(r.Bundle, bundle) {
			out = append(out, r)
		}
	}
	return out
}

// Keys counts the rows of each bundle that carry the presence marker.
func Keys(t table.Store, s *Schema) map[string]int {
	counts := make(map[string]int, len(s.Bundles))
	for _, b := range s.Bundles {
		counts[b.Name] = 0
	}
	for row := 1; row < t.RowCount(); row++ {
		for _, b := range s.Bundles {
			if IsPresent(t.Value(row, b.Index)) {
				counts[b.Name]++
			}
		}
	}
	return counts
}

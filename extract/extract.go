// Package extract reads key/value pairs out of locale source files.
//
// A locale file is free-form text whose translations live in a single
// object literal opened by a "return {" line:
//
//	define([], function() {
//	  return {
//	    Title: "Hello",
//	    Description: 'World',
//	  }
//	});
//
// Every line after the opening one that splits at a colon into a non-empty
// key and value is a pair. Anything that does not fit is skipped silently.
package extract

import (
	"strings"

	"github.com/minios-linux/locsync/scanner"
)

// Pair is one translation key and its text.
type Pair struct {
	Key   string
	Value string
}

// Pairs extracts the key/value pairs of a locale file in order of first
// appearance. A key defined twice keeps its first position and its last
// value.
func Pairs(text string) []Pair {
	var (
		pairs  []Pair
		index  = make(map[string]int)
		inside bool
	)

	for _, line := range splitLines(text) {
		if !inside {
			inside = scanner.ObjectLiteral.Start.MatchString(line)
			continue
		}

		left, right, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key := StripQuotes(left)
		value := StripQuotes(right)
		if key == "" || value == "" {
			continue
		}

		if i, ok := index[key]; ok {
			pairs[i].Value = value
			continue
		}
		index[key] = len(pairs)
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return pairs
}

// Lookup returns the text of key in a locale file.
func Lookup(text, key string) (string, bool) {
	for _, p := range Pairs(text) {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// StripQuotes trims s, drops one trailing comma and then one layer of
// matching quotes (', " or `). Escapes of the stripped quote, of the
// backslash and of \n, \r and \t are resolved; other escape sequences are
// kept as written.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ",")
	s = strings.TrimSpace(s)

	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q != '"' && q != '\'' && q != '`') || s[len(s)-1] != q {
		return s
	}
	return unescape(s[1:len(s)-1], q)
}

func unescape(s string, quote byte) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch next := s[i+1]; next {
		case '\\', quote:
			b.WriteByte(next)
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(c)
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}

// Quote wraps s in double quotes, escaping what StripQuotes resolves, so
// that values written to a locale file read back unchanged. A backslash is
// only doubled where StripQuotes would otherwise resolve it, which keeps
// sequences like \b or \u00e9 as they were read.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteByte(c)
			if i+1 == len(s) || resolvesEscape(s[i+1]) {
				b.WriteByte(c)
			}
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// resolvesEscape reports whether StripQuotes would resolve a backslash
// written before c once Quote has escaped c.
func resolvesEscape(c byte) bool {
	switch c {
	case '\\', '"', 'n', 'r', 't', '\n', '\r', '\t':
		return true
	}
	return false
}

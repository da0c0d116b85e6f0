// Package scanner finds where a new entry belongs in a hand-written,
// key-sorted block of a source file.
//
// The scanner tracks scopes line by line with three patterns: one opening a
// scope, one matching an entry and capturing its key, and one closing the
// scope. The same state machine serves object literals in locale files and
// interface declarations in type-declaration files.
package scanner

import (
	"regexp"
	"strings"

	"github.com/minios-linux/locsync/schema"
)

// Patterns drive the scanner. Entry must capture the entry key in group 1.
type Patterns struct {
	Start *regexp.Regexp
	Entry *regexp.Regexp
	End   *regexp.Regexp
}

var (
	// ObjectLiteral matches the "return { key: value, ... }" block of a
	// locale file.
	ObjectLiteral = Patterns{
		Start: regexp.MustCompile(`^\s*return\s*\{`),
		Entry: regexp.MustCompile("^\\s*[\"'`]?([\\w$]+)[\"'`]?\\s*:"),
		End:   regexp.MustCompile(`^\s*\}`),
	}

	// Declaration matches a "declare interface Strings { key: string; }"
	// block of a type-declaration file.
	Declaration = Patterns{
		Start: regexp.MustCompile(`^\s*(export\s+)?declare\s+interface\s+\w+.*\{`),
		Entry: regexp.MustCompile(`^\s*(\w+)\??\s*:`),
		End:   regexp.MustCompile(`^\s*\}`),
	}
)

// InsertPosition returns the index of the line after which key belongs:
// the last entry sorting before key, or the scope opening line when none
// does. It returns -1 when no scope opens anywhere in lines.
func InsertPosition(lines []string, key string, p Patterns) int {
	pos := -1
	inside := false

	for i, line := range lines {
		if inside {
			if m := p.Entry.FindStringSubmatch(line); m != nil && schema.KeyLess(m[1], key) {
				pos = i
			}
			if p.End.MatchString(line) {
				inside = false
			}
		}
		if p.Start.MatchString(line) {
			inside = true
			pos = i
		}
	}
	return pos
}

// Keys lists the entry keys found inside scopes, in file order.
func Keys(lines []string, p Patterns) []string {
	var keys []string
	inside := false

	for _, line := range lines {
		if inside {
			if m := p.Entry.FindStringSubmatch(line); m != nil {
				keys = append(keys, m[1])
			}
			if p.End.MatchString(line) {
				inside = false
			}
		}
		if p.Start.MatchString(line) {
			inside = true
		}
	}
	return keys
}

// Insert returns a copy of lines with line added at the position of key.
// The new line is indented like the entry that follows it, else like the
// entry it follows, else two spaces deeper than the scope opening line.
// ok is false, and lines are returned unchanged, when there is no scope.
func Insert(lines []string, key, line string, p Patterns) ([]string, bool) {
	pos := InsertPosition(lines, key, p)
	if pos < 0 {
		return lines, false
	}

	var indent string
	switch {
	case pos+1 < len(lines) && p.Entry.MatchString(lines[pos+1]):
		indent = leadingSpace(lines[pos+1])
	case p.Entry.MatchString(lines[pos]) && !p.Start.MatchString(lines[pos]):
		indent = leadingSpace(lines[pos])
	default:
		indent = leadingSpace(lines[pos]) + "  "
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:pos+1]...)
	out = append(out, indent+strings.TrimSpace(line))
	out = append(out, lines[pos+1:]...)
	return out, true
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

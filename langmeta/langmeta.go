// Package langmeta provides language metadata (native names and emoji
// flags) for locale tags shown in the CLI.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 && len(parts[1]) == 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for a locale tag such as "de-de",
// "pt_BR" or "zh-hans-cn". The name is the language's own name for itself;
// the flag is derived from the explicit or most likely region. Unknown
// tags are returned as their own name without a flag.
func Resolve(lang string) Meta {
	normalized := canonicalize(lang)
	if normalized == "" {
		return Meta{Name: lang}
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return Meta{Name: lang}
	}

	name := display.Self.Name(tag)
	if name == "" {
		return Meta{Name: lang}
	}
	return Meta{Name: name, Flag: Flag(tag)}
}

// Flag returns the emoji flag of the region of tag, or "" when the region
// cannot be determined.
func Flag(tag language.Tag) string {
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	code := region.String()
	if len(code) != 2 || code == "ZZ" {
		return ""
	}
	var b strings.Builder
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}

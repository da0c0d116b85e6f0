// Package i18n translates the messages locsync prints.
//
// Catalogues are gettext .po files embedded under
// locales/<lang>/LC_MESSAGES/locsync.po. Init picks the catalogue closest to
// the requested language; T and N pass messages through untranslated until
// then, or when no catalogue matches.
package i18n

import (
	"embed"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

//go:embed all:locales
var locales embed.FS

const domain = "locsync"

// fallback is the language messages are written in.
const fallback = "en"

var po *gotext.Locale

// noVars keeps gotext from formatting: messages are returned with their
// verbs intact for the caller to fill in.
var noVars []any

// Init loads the catalogue matching lang, or the language of the
// environment when lang is empty. Messages stay untranslated when nothing
// matches.
func Init(lang string) {
	if lang == "" {
		lang = envLanguage()
	}
	tag := match(lang)
	if tag == fallback {
		po = nil
		return
	}

	po = gotext.NewLocaleFSWithPath(tag, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// T returns the translation of msgid.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid, noVars...)
}

// N returns the translation of a message with a count, choosing the plural
// form by the rules of the loaded catalogue.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n, noVars...)
}

// Available lists the languages with an embedded catalogue, sorted.
func Available() []string {
	entries, err := fs.ReadDir(locales, "locales")
	if err != nil {
		return nil
	}
	var langs []string
	for _, e := range entries {
		if e.IsDir() {
			langs = append(langs, e.Name())
		}
	}
	sort.Strings(langs)
	return langs
}

// match returns the embedded catalogue closest to lang, a POSIX locale name
// such as "de_AT" or a BCP 47 tag, or fallback when none is close enough.
func match(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return fallback
	}

	avail := Available()
	supported := []language.Tag{language.English}
	for _, l := range avail {
		supported = append(supported, language.Make(l))
	}

	_, idx, conf := language.NewMatcher(supported).Match(tag)
	if conf == language.No || idx == 0 {
		return fallback
	}
	return avail[idx-1]
}

// envLanguage returns the language of the environment in gettext order:
// LANGUAGE (first entry), LC_ALL, LC_MESSAGES, LANG. Encodings are
// dropped and the C and POSIX locales skipped.
func envLanguage() string {
	for _, name := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		val := os.Getenv(name)
		if name == "LANGUAGE" {
			val, _, _ = strings.Cut(val, ":")
		}
		val, _, _ = strings.Cut(val, ".")
		switch val {
		case "", "C", "POSIX":
			continue
		}
		return val
	}
	return fallback
}

package extract

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DeclarationExt is the suffix of type-declaration files.
const DeclarationExt = ".d.ts"

// FindLocaleFiles lists the locale files of a bundle directory: files and
// symlinks not pointing at a directory, with extension ext (without the
// dot), sorted by name. A dangling symlink is listed so that reading it
// reports the problem.
// Declaration files never count as locale files.
func FindLocaleFiles(dir, ext string) ([]string, error) {
	suffix := "." + strings.TrimPrefix(ext, ".")
	return list(dir, func(name string) bool {
		return strings.HasSuffix(name, suffix) && !strings.HasSuffix(name, DeclarationExt)
	})
}

// FindDeclarations lists the type-declaration files of a bundle directory.
func FindDeclarations(dir string) ([]string, error) {
	return list(dir, func(name string) bool {
		return strings.HasSuffix(name, DeclarationExt)
	})
}

func list(dir string, match func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !match(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Type().IsRegular():
		case e.Type()&fs.ModeSymlink != 0:
			if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// LocaleName derives the locale of a file from its base name without the
// last extension: "de-de.js" is "de-de".
func LocaleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

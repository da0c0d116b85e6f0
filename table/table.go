// Package table implements the master file grid: a 2-D store of string
// cells where row 0 is the header and every other row holds one translation
// key.
//
// Two backends satisfy the same Store contract:
//
//	CSV    delimited text (.csv, .tsv, .txt), kept in memory as [][]string
//	Sheet  spreadsheet workbook (.xlsx), backed by its first worksheet
//
// Reads and writes never fail on out-of-range coordinates: Value returns ""
// and SetValue does nothing. Callers pick a backend by file extension with
// ForPath or New.
package table

import (
	"io"
	"path/filepath"
	"strings"
)

// DefaultDelimiter is the field separator used when Options.Delimiter is zero.
const DefaultDelimiter = ';'

// Options controls serialization of the master file.
type Options struct {
	// Delimiter is the field separator for delimited text. Ignored by Sheet.
	Delimiter rune
	// BOM prefixes the written file with a UTF-8 byte-order mark. Ignored by Sheet.
	BOM bool
}

func (o Options) delimiter() rune {
	if o.Delimiter == 0 {
		return DefaultDelimiter
	}
	return o.Delimiter
}

// Store is uniform access to a grid of string cells.
type Store interface {
	// Value returns the cell at (row, col), or "" when out of range.
	Value(row, col int) string
	// SetValue sets the cell at (row, col). Out-of-range writes are ignored.
	SetValue(row, col int, v string)
	// AddRow inserts a row of empty cells at index at, shifting later rows down.
	AddRow(at int)
	// AppendColumn adds a column to every row, names it in the header and
	// returns its index.
	AppendColumn(header string) int
	// RowCount is the number of rows including the header.
	RowCount() int
	// ColCount is the width of the header row.
	ColCount() int

	// Read loads the grid from a local file.
	Read(path string, opts Options) error
	// Write saves the grid to a local file in a single atomic replace.
	Write(path string, opts Options) error
	// Decode loads the grid from r.
	Decode(r io.Reader, opts Options) error
	// Encode serializes the grid to w.
	Encode(w io.Writer, opts Options) error

	// Grid returns a copy of all cells, RowCount x ColCount.
	Grid() [][]string
}

// Err returns the first edit t failed to apply, for backends that can
// reject one.
func Err(t Store) error {
	if e, ok := t.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// IsDelimited reports whether path names a delimited text master file.
func IsDelimited(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

// ForPath returns an empty store of the backend matching path's extension.
func ForPath(path string) Store {
	if IsDelimited(path) {
		return NewCSV(nil)
	}
	return NewSheet(nil, "")
}

// New returns a store for path pre-filled with grid. name is used as the
// worksheet name by the Sheet backend.
func New(path string, grid [][]string, name string) Store {
	if IsDelimited(path) {
		return NewCSV(grid)
	}
	return NewSheet(grid, name)
}

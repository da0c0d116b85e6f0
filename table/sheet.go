package table

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest worksheet name spreadsheet applications accept.
const maxSheetName = 31

// maxCellChars is the most characters a worksheet cell holds.
const maxCellChars = 32767

// Sheet is the spreadsheet backend. Cells live in the first worksheet of
// an excelize workbook; row and column counts are tracked alongside
// because excelize does not report trailing empty rows.
//
// The first failed edit is kept in err; later edits are dropped and Encode
// reports it, so a workbook that could not take a change is never written.
type Sheet struct {
	file  *excelize.File
	sheet string
	rows  int
	cols  int
	err   error
}

// NewSheet returns a workbook store holding grid in a single worksheet
// named name (the default sheet name when empty).
func NewSheet(grid [][]string, name string) *Sheet {
	f := excelize.NewFile()
	s := &Sheet{file: f, sheet: f.GetSheetList()[0]}

	if name = sheetName(name); name != "" && name != s.sheet {
		if err := f.SetSheetName(s.sheet, name); err == nil {
			s.sheet = name
		}
	}

	if len(grid) > 0 {
		s.cols = len(grid[0])
		s.rows = len(grid)
		for r, row := range grid {
			for c, v := range row {
				s.SetValue(r, c, v)
			}
		}
	}
	return s
}

// sheetName strips characters worksheets may not contain and truncates
// to the allowed length.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	return name
}

func cellName(row, col int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row+1)
	return name
}

func (s *Sheet) inRange(row, col int) bool {
	return row >= 0 && col >= 0 && row < s.rows && col < s.cols
}

func (s *Sheet) Value(row, col int) string {
	if !s.inRange(row, col) {
		return ""
	}
	v, err := s.file.GetCellValue(s.sheet, cellName(row, col), excelize.Options{RawCellValue: true})
	if err != nil {
		return ""
	}
	return v
}

func (s *Sheet) SetValue(row, col int, v string) {
	if s.err != nil || !s.inRange(row, col) {
		return
	}
	if n := utf8.RuneCountInString(v); n > maxCellChars {
		s.err = fmt.Errorf("%w: %s holds %d characters", ErrCellTooLong, cellName(row, col), n)
		return
	}
	if err := s.file.SetCellStr(s.sheet, cellName(row, col), v); err != nil {
		s.err = fmt.Errorf("setting %s: %w", cellName(row, col), err)
	}
}

// Err returns the first edit the workbook failed to take.
func (s *Sheet) Err() error { return s.err }

// AddRow inserts an empty worksheet row and keeps structured tables
// intact: a table whose range covers the new row, or ends on the row just
// above it, grows by one row.
func (s *Sheet) AddRow(at int) {
	if s.err != nil {
		return
	}
	at = max(0, min(at, s.rows))
	excelRow := at + 1

	before, _ := s.file.GetTables(s.sheet)

	if at < s.rows {
		if err := s.file.InsertRows(s.sheet, excelRow, 1); err != nil {
			s.err = fmt.Errorf("inserting row %d: %w", excelRow, err)
			return
		}
	}
	s.rows++

	for _, t := range before {
		want, ok := grownRange(t.Range, excelRow)
		if !ok {
			continue
		}
		s.resizeTable(t.Name, want)
	}
}

// grownRange computes the range of a table after a row is inserted at
// excelRow. ok is false when the table is unaffected.
func grownRange(ref string, excelRow int) (string, bool) {
	x1, y1, x2, y2, err := parseRange(ref)
	if err != nil {
		return "", false
	}
	if excelRow > y2+1 {
		return "", false
	}
	if excelRow <= y1 {
		y1++
	}
	y2++

	from, err := excelize.CoordinatesToCellName(x1, y1)
	if err != nil {
		return "", false
	}
	to, err := excelize.CoordinatesToCellName(x2, y2)
	if err != nil {
		return "", false
	}
	return from + ":" + to, true
}

func parseRange(ref string) (x1, y1, x2, y2 int, err error) {
	from, to, found := strings.Cut(strings.ReplaceAll(ref, "$", ""), ":")
	if !found {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q", ref)
	}
	if x1, y1, err = excelize.CellNameToCoordinates(from); err != nil {
		return
	}
	x2, y2, err = excelize.CellNameToCoordinates(to)
	return
}

// resizeTable sets the range of the named table. Depending on the excelize
// version InsertRows may already have moved it; the table is only
// recreated when its current range differs.
func (s *Sheet) resizeTable(name, ref string) {
	tables, err := s.file.GetTables(s.sheet)
	if err != nil {
		return
	}
	for _, t := range tables {
		if t.Name != name {
			continue
		}
		if strings.EqualFold(strings.ReplaceAll(t.Range, "$", ""), ref) {
			return
		}
		if err := s.file.DeleteTable(name); err != nil {
			return
		}
		t.Range = ref
		_ = s.file.AddTable(s.sheet, &t)
		return
	}
}

func (s *Sheet) AppendColumn(header string) int {
	idx := s.cols
	s.cols++
	if s.rows == 0 {
		s.rows = 1
	}
	s.SetValue(0, idx, header)
	return idx
}

func (s *Sheet) RowCount() int { return s.rows }

func (s *Sheet) ColCount() int { return s.cols }

func (s *Sheet) Grid() [][]string {
	grid := make([][]string, s.rows)
	for r := range grid {
		grid[r] = make([]string, s.cols)
		for c := range grid[r] {
			grid[r][c] = s.Value(r, c)
		}
	}
	return grid
}

// Close releases temporary files held by the workbook.
func (s *Sheet) Close() error {
	return s.file.Close()
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func (s *Sheet) Read(path string, opts Options) error {
	return readFile(path, func(r io.Reader) error {
		if err := s.Decode(r, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
}

func (s *Sheet) Write(path string, opts Options) error {
	if s.err != nil {
		return s.err
	}
	if s.rows == 0 {
		return ErrEmpty
	}
	return WriteAtomic(path, func(w io.Writer) error {
		return s.Encode(w, opts)
	})
}

// Decode loads a workbook and binds the store to its first worksheet.
func (s *Sheet) Decode(r io.Reader, _ Options) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return fmt.Errorf("%w: workbook has no worksheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	// The header defines the columns; longer data rows keep their extra
	// cells in the workbook but are not part of the table.
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = f
	s.sheet = sheets[0]
	s.rows = len(rows)
	s.cols = cols
	s.err = nil
	return nil
}

func (s *Sheet) Encode(w io.Writer, _ Options) error {
	if s.err != nil {
		return s.err
	}
	if s.rows == 0 {
		return ErrEmpty
	}
	if err := s.file.Write(w); err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return nil
}

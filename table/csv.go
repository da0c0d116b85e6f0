package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM is the byte-order mark optionally written at the start of a
// delimited master file. Spreadsheet tools use it to detect UTF-8.
const utf8BOM = "\ufeff"

// CSV is the delimited-text backend. The whole grid lives in memory.
type CSV struct {
	rows [][]string
}

// NewCSV returns a delimited-text store holding grid. The slice is used
// as-is, not copied.
func NewCSV(grid [][]string) *CSV {
	c := &CSV{rows: grid}
	c.normalize()
	return c
}

// normalize pads rows shorter than the header so that every row has at
// least ColCount cells.
func (c *CSV) normalize() {
	width := c.ColCount()
	for i, row := range c.rows {
		if len(row) < width {
			c.rows[i] = append(row, make([]string, width-len(row))...)
		}
	}
}

func (c *CSV) Value(row, col int) string {
	if row < 0 || col < 0 || row >= c.RowCount() || col >= c.ColCount() {
		return ""
	}
	return c.rows[row][col]
}

func (c *CSV) SetValue(row, col int, v string) {
	if row < 0 || col < 0 || row >= c.RowCount() || col >= c.ColCount() {
		return
	}
	c.rows[row][col] = v
}

func (c *CSV) AddRow(at int) {
	at = max(0, min(at, c.RowCount()))
	c.rows = append(c.rows, nil)
	copy(c.rows[at+1:], c.rows[at:])
	c.rows[at] = make([]string, c.ColCount())
}

func (c *CSV) AppendColumn(header string) int {
	idx := c.ColCount()
	if len(c.rows) == 0 {
		c.rows = [][]string{{}}
	}
	for i, row := range c.rows {
		// Rows wider than the header keep their extra cells after the new column.
		row = append(row[:idx:idx], append([]string{""}, row[idx:]...)...)
		c.rows[i] = row
	}
	c.rows[0][idx] = header
	return idx
}

func (c *CSV) RowCount() int { return len(c.rows) }

func (c *CSV) ColCount() int {
	if len(c.rows) == 0 {
		return 0
	}
	return len(c.rows[0])
}

func (c *CSV) Grid() [][]string {
	grid := make([][]string, c.RowCount())
	width := c.ColCount()
	for r := range grid {
		grid[r] = make([]string, width)
		copy(grid[r], c.rows[r])
	}
	return grid
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func (c *CSV) Read(path string, opts Options) error {
	return readFile(path, func(r io.Reader) error {
		if err := c.Decode(r, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
}

func (c *CSV) Write(path string, opts Options) error {
	if c.RowCount() == 0 {
		return ErrEmpty
	}
	return WriteAtomic(path, func(w io.Writer) error {
		return c.Encode(w, opts)
	})
}

// Decode parses delimited text. A leading byte-order mark is always
// stripped, whether or not opts.BOM is set.
func (c *CSV) Decode(r io.Reader, opts Options) error {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, []byte(utf8BOM)) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = opts.delimiter()
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c.rows = rows
	c.normalize()
	return nil
}

func (c *CSV) Encode(w io.Writer, opts Options) error {
	if c.RowCount() == 0 {
		return ErrEmpty
	}
	if opts.BOM {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.delimiter()
	if err := cw.WriteAll(c.rows); err != nil {
		return fmt.Errorf("encoding delimited text: %w", err)
	}
	return nil
}

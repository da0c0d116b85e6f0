package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minios-linux/locsync/table"
)

// NewStore returns a store of the backend matching location, pre-filled
// with grid. sheet names the worksheet of a new workbook.
func NewStore(location string, grid [][]string, sheet string) table.Store {
	return table.New("master"+Ext(location), grid, sheet)
}

// Load reads the master file at location into a store of the matching
// backend. A missing file is reported as ErrNotFound, a corrupt one as
// table.ErrMalformed.
func Load(ctx context.Context, location string, opts table.Options) (table.Store, error) {
	r, err := Read(ctx, location)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := NewStore(location, nil, "")
	if err := t.Decode(r, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	return t, nil
}

// Close releases the resources a store holds, such as the temporary files
// of a workbook. Stores without any are left alone.
func Close(t table.Store) error {
	if c, ok := t.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Save writes t to location in one replace.
func Save(ctx context.Context, location string, t table.Store, opts table.Options) error {
	if t.RowCount() == 0 {
		return table.ErrEmpty
	}
	return Write(ctx, location, func(w io.Writer) error {
		return t.Encode(w, opts)
	})
}

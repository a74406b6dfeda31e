// pkg/model/frame.go
package model

import (
	"fmt"
	"strings"
)

// Frame is an in-memory table of string cells with a fixed header.
// Numeric interpretation is left to the stage that consumes a column.
type Frame struct {
	Columns []string   // Header, in file order
	Rows    [][]string // One slice per row, len(row) == len(Columns)
}

// NewFrame validates that every row matches the header width
func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("frame has no columns")
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i, len(row), len(columns))
		}
	}
	return &Frame{Columns: columns, Rows: rows}, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// ColumnIndex resolves a column name. An exact match wins; otherwise the
// names are compared with surrounding whitespace removed, since the raw
// traffic exports pad most headers with a leading space.
func (f *Frame) ColumnIndex(name string) (int, error) {
	for i, col := range f.Columns {
		if col == name {
			return i, nil
		}
	}

	trimmed := strings.TrimSpace(name)
	for i, col := range f.Columns {
		if strings.TrimSpace(col) == trimmed {
			return i, nil
		}
	}

	return -1, &SchemaError{Column: name, Available: f.Columns}
}

// RequireColumns returns a SchemaError for the first missing column
func (f *Frame) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, err := f.ColumnIndex(name); err != nil {
			return err
		}
	}
	return nil
}

// Column returns a copy of the cells in the named column
func (f *Frame) Column(name string) ([]string, error) {
	idx, err := f.ColumnIndex(name)
	if err != nil {
		return nil, err
	}

	values := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// SetColumn overwrites the named column in place
func (f *Frame) SetColumn(name string, values []string) error {
	idx, err := f.ColumnIndex(name)
	if err != nil {
		return err
	}
	if len(values) != len(f.Rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(f.Rows))
	}

	for i := range f.Rows {
		f.Rows[i][idx] = values[i]
	}
	return nil
}

// Subset returns a new frame holding copies of the given rows, in order
func (f *Frame) Subset(indices []int) *Frame {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		rows[i] = append([]string(nil), f.Rows[idx]...)
	}
	return &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    rows,
	}
}

// Clone deep-copies the frame
func (f *Frame) Clone() *Frame {
	indices := make([]int, len(f.Rows))
	for i := range indices {
		indices[i] = i
	}
	return f.Subset(indices)
}

package model

import (
	"fmt"
	"strconv"
)

// Value is a single typed cell of a prepared dataset.
type Value struct {
	Text   string
	Number float64
	Kind   Kind
}

// Num builds a numerical value.
func Num(v float64) Value {
	return Value{Kind: KindNumerical, Number: v}
}

// Str builds a categorical value.
func Str(s string) Value {
	return Value{Kind: KindCategorical, Text: s}
}

// Bool builds a logical value using the "True"/"False" encoding.
func Bool(b bool) Value {
	if b {
		return Value{Kind: KindLogical, Text: "True"}
	}
	return Value{Kind: KindLogical, Text: "False"}
}

// String renders the value the way it is written to CSV.
func (v Value) String() string {
	if v.Kind == KindNumerical {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return v.Text
}

// Dataset is the schema-conformant, fully typed output of the preparation pipeline.
type Dataset struct {
	Target  string
	Mode    Mode
	Columns []string
	Kinds   []Kind
	Rows    [][]Value
	index   map[string]int
}

// NewDataset creates an empty dataset with the given column layout.
func NewDataset(mode Mode, target string, columns []string, kinds []Kind) *Dataset {
	ds := &Dataset{
		Mode:    mode,
		Target:  target,
		Columns: columns,
		Kinds:   kinds,
	}
	ds.reindex()
	return ds
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		d.index[c] = i
	}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of a column or -1 when it is absent.
func (d *Dataset) ColumnIndex(name string) int {
	if d.index == nil {
		d.reindex()
	}
	i, ok := d.index[name]
	if !ok {
		return -1
	}
	return i
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Value returns the cell at row i for the named column.
func (d *Dataset) Value(i int, column string) (Value, error) {
	j := d.ColumnIndex(column)
	if j < 0 {
		return Value{}, fmt.Errorf("column %q not in dataset", column)
	}
	if i < 0 || i >= len(d.Rows) {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", i, len(d.Rows))
	}
	return d.Rows[i][j], nil
}

// Numbers returns a numerical column as a float slice.
func (d *Dataset) Numbers(column string) ([]float64, error) {
	j := d.ColumnIndex(column)
	if j < 0 {
		return nil, fmt.Errorf("column %q not in dataset", column)
	}
	if d.Kinds[j] != KindNumerical {
		return nil, fmt.Errorf("column %q is %s, not numerical", column, d.Kinds[j])
	}
	out := make([]float64, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[j].Number
	}
	return out, nil
}

// Subset returns a dataset with the same layout holding the given rows in order.
// Rows are shared with the receiver, not copied.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := NewDataset(d.Mode, d.Target, d.Columns, d.Kinds)
	out.Rows = make([][]Value, len(indices))
	for k, i := range indices {
		out.Rows[k] = d.Rows[i]
	}
	return out
}

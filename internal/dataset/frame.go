package dataset

import (
	"sort"

	"github.com/Veraticus/carprice/internal/model"
)

// frame is the mutable working table a single preparation call operates on. Raw text
// stays in text; numerical columns move to nums once parsed.
type frame struct {
	text map[string][]string
	nums map[string][]float64
	n    int
}

func newFrame(rows []model.RawRecord) *frame {
	f := &frame{
		text: make(map[string][]string),
		nums: make(map[string][]float64),
		n:    len(rows),
	}

	for _, row := range rows {
		for col := range row {
			if _, ok := f.text[col]; !ok {
				f.text[col] = make([]string, len(rows))
			}
		}
	}
	for i, row := range rows {
		for col, v := range row {
			f.text[col][i] = v
		}
	}
	return f
}

func (f *frame) has(col string) bool {
	_, ok := f.text[col]
	return ok
}

// columns returns the raw column names in sorted order.
func (f *frame) columns() []string {
	cols := make([]string, 0, len(f.text))
	for c := range f.text {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// drop removes the rows at the given ascending indices from every column.
func (f *frame) drop(indices []int) {
	if len(indices) == 0 {
		return
	}

	keep := make([]int, 0, f.n-len(indices))
	k := 0
	for i := 0; i < f.n; i++ {
		if k < len(indices) && indices[k] == i {
			k++
			continue
		}
		keep = append(keep, i)
	}

	for col, vals := range f.text {
		out := make([]string, len(keep))
		for j, i := range keep {
			out[j] = vals[i]
		}
		f.text[col] = out
	}
	for col, vals := range f.nums {
		out := make([]float64, len(keep))
		for j, i := range keep {
			out[j] = vals[i]
		}
		f.nums[col] = out
	}
	f.n = len(keep)
}

package pricing

import (
	"fmt"
	"math"
	"sort"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

// Column describes how one dataset column maps onto the design matrix. Numerical
// columns are standardized; categorical and logical columns are one-hot encoded over
// the levels seen during training. Unseen levels encode as all zeros.
type Column struct {
	Name   string
	Kind   model.Kind
	Levels []string
	Mean   float64
	Scale  float64
}

func (c Column) width() int {
	if c.Kind == model.KindNumerical {
		return 1
	}
	return len(c.Levels)
}

// fitColumns learns the encoding of every non-target column of ds.
func fitColumns(ds *model.Dataset) []Column {
	var cols []Column
	for j, name := range ds.Columns {
		if name == ds.Target {
			continue
		}

		col := Column{Name: name, Kind: ds.Kinds[j]}
		if col.Kind == model.KindNumerical {
			var sum, sq float64
			for _, row := range ds.Rows {
				sum += row[j].Number
			}
			col.Mean = sum / float64(len(ds.Rows))
			for _, row := range ds.Rows {
				d := row[j].Number - col.Mean
				sq += d * d
			}
			col.Scale = math.Sqrt(sq / float64(len(ds.Rows)))
			if col.Scale == 0 {
				col.Scale = 1
			}
		} else {
			seen := make(map[string]bool)
			for _, row := range ds.Rows {
				seen[row[j].Text] = true
			}
			for level := range seen {
				col.Levels = append(col.Levels, level)
			}
			sort.Strings(col.Levels)
		}
		cols = append(cols, col)
	}
	return cols
}

// encode builds the row-major design matrix for ds using the learned columns.
func encode(cols []Column, ds *model.Dataset) ([]float64, int, error) {
	idx := make([]int, len(cols))
	width := 0
	for k, c := range cols {
		j := ds.ColumnIndex(c.Name)
		if j < 0 {
			return nil, 0, fmt.Errorf("%w: column %q required by the model is missing", common.ErrSchema, c.Name)
		}
		if ds.Kinds[j] != c.Kind {
			return nil, 0, fmt.Errorf("%w: column %q is %s, model expects %s", common.ErrSchema, c.Name, ds.Kinds[j], c.Kind)
		}
		idx[k] = j
		width += c.width()
	}

	data := make([]float64, len(ds.Rows)*width)
	for i, row := range ds.Rows {
		off := i * width
		for k, c := range cols {
			v := row[idx[k]]
			if c.Kind == model.KindNumerical {
				data[off] = (v.Number - c.Mean) / c.Scale
				off++
				continue
			}
			if l := sort.SearchStrings(c.Levels, v.Text); l < len(c.Levels) && c.Levels[l] == v.Text {
				data[off+l] = 1
			}
			off += len(c.Levels)
		}
	}
	return data, width, nil
}

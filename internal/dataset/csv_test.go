package dataset_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/schema"
	"github.com/Veraticus/carprice/internal/testutil/cars"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []model.RawRecord
		wantErr bool
	}{
		{
			name:  "header and rows",
			input: "Manufacturer,Mileage\nToyota,80000 km\nFord,\"1,000 km\"\n",
			want: []model.RawRecord{
				{"Manufacturer": "Toyota", "Mileage": "80000 km"},
				{"Manufacturer": "Ford", "Mileage": "1,000 km"},
			},
		},
		{
			name:  "byte order mark is stripped",
			input: "\ufeffManufacturer\nToyota\n",
			want:  []model.RawRecord{{"Manufacturer": "Toyota"}},
		},
		{
			name:  "header only",
			input: "Manufacturer,Mileage\n",
			want:  nil,
		},
		{name: "empty", input: "", wantErr: true},
		{name: "duplicate column", input: "a,a\n1,2\n", wantErr: true},
		{name: "ragged row", input: "a,b\n1\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dataset.ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeCSV(t *testing.T) {
	p := newPipeline(t)

	ds, err := p.Prepare([]model.RawRecord{cars.Camry()}, model.ModeInference)
	require.NoError(t, err)

	data, err := dataset.EncodeCSV(ds)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Manufacturer,Model,Prod. year"))
	assert.Contains(t, lines[1], "Toyota,Camry,2018,Sedan,True,Petrol,2.5,80000,4")
	assert.True(t, strings.HasSuffix(lines[1], ",Yes"))
}

func TestNewInput(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t)

	t.Run("records", func(t *testing.T) {
		in, err := dataset.NewInput(ctx, model.ModeInference, dataset.Records(cars.Camry()))
		require.NoError(t, err)
		assert.Equal(t, "1 in-memory records", in.Origin)

		ds, err := p.Run(in)
		require.NoError(t, err)
		assert.Equal(t, 1, ds.Len())
	})

	t.Run("path", func(t *testing.T) {
		path := cars.WriteFile(t, t.TempDir(), "raw/cars.csv", cars.Fleet(cars.MinFleet))

		in, err := dataset.NewInput(ctx, model.ModeTraining, dataset.Path(path, dataset.FileReader{}))
		require.NoError(t, err)
		assert.Equal(t, path, in.Origin)
		assert.Len(t, in.Rows, cars.MinFleet)

		ds, err := p.Run(in)
		require.NoError(t, err)
		assert.Equal(t, cars.MinFleet, ds.Len())
		assert.True(t, ds.HasColumn(schema.Price))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := dataset.NewInput(ctx, model.ModeTraining, dataset.Path(filepath.Join(t.TempDir(), "nope.csv"), dataset.FileReader{}))
		assert.Error(t, err)
	})

	t.Run("no source", func(t *testing.T) {
		_, err := dataset.NewInput(ctx, model.ModeTraining, nil)
		assert.ErrorIs(t, err, common.ErrPreparation)

		_, err = p.Run(nil)
		assert.ErrorIs(t, err, common.ErrPreparation)
	})
}

package dataset_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
)

func numbered(n int) *model.Dataset {
	ds := model.NewDataset(model.ModeTraining, "Price", []string{"ID", "Price"}, []model.Kind{model.KindNumerical, model.KindNumerical})
	for i := 0; i < n; i++ {
		ds.Rows = append(ds.Rows, []model.Value{model.Num(float64(i)), model.Num(float64(1000 + i))})
	}
	return ds
}

func ids(t *testing.T, ds *model.Dataset) []int {
	t.Helper()
	nums, err := ds.Numbers("ID")
	require.NoError(t, err)
	out := make([]int, len(nums))
	for i, v := range nums {
		out[i] = int(v)
	}
	return out
}

func TestSplit_DisjointAndComplete(t *testing.T) {
	for _, n := range []int{2, 3, 10, 97} {
		for _, fraction := range []float64{0.01, 0.1, 0.5, 0.99} {
			for _, seed := range []int64{0, 21, 12345} {
				train, test, err := dataset.Split(numbered(n), fraction, seed)
				require.NoError(t, err)

				require.NotZero(t, train.Len())
				require.NotZero(t, test.Len())

				all := append(ids(t, train), ids(t, test)...)
				sort.Ints(all)
				want := make([]int, n)
				for i := range want {
					want[i] = i
				}
				assert.Equal(t, want, all, "n=%d fraction=%v seed=%d", n, fraction, seed)
			}
		}
	}
}

func TestSplit_Sizes(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		wantTest int
	}{
		{n: 100, fraction: 0.1, wantTest: 10},
		{n: 95, fraction: 0.1, wantTest: 10},
		{n: 10, fraction: 0.01, wantTest: 1},
		{n: 10, fraction: 0.99, wantTest: 9},
		{n: 2, fraction: 0.5, wantTest: 1},
	}

	for _, tt := range tests {
		train, test, err := dataset.Split(numbered(tt.n), tt.fraction, 21)
		require.NoError(t, err)
		assert.Equal(t, tt.wantTest, test.Len())
		assert.Equal(t, tt.n-tt.wantTest, train.Len())
	}
}

func TestSplit_Deterministic(t *testing.T) {
	train1, test1, err := dataset.Split(numbered(50), 0.2, 21)
	require.NoError(t, err)
	train2, test2, err := dataset.Split(numbered(50), 0.2, 21)
	require.NoError(t, err)

	assert.Equal(t, ids(t, train1), ids(t, train2))
	assert.Equal(t, ids(t, test1), ids(t, test2))

	_, test3, err := dataset.Split(numbered(50), 0.2, 22)
	require.NoError(t, err)
	assert.NotEqual(t, ids(t, test1), ids(t, test3))
}

func TestSplit_PreservesOrder(t *testing.T) {
	train, test, err := dataset.Split(numbered(30), 0.3, 21)
	require.NoError(t, err)

	assert.True(t, sort.IntsAreSorted(ids(t, train)))
	assert.True(t, sort.IntsAreSorted(ids(t, test)))
	assert.Equal(t, "Price", train.Target)
}

func TestSplit_InvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		ds       *model.Dataset
		fraction float64
		wantName string
	}{
		{name: "zero fraction", ds: numbered(10), fraction: 0, wantName: "test_fraction"},
		{name: "whole dataset", ds: numbered(10), fraction: 1, wantName: "test_fraction"},
		{name: "negative", ds: numbered(10), fraction: -0.2, wantName: "test_fraction"},
		{name: "single row", ds: numbered(1), fraction: 0.5, wantName: "rows"},
		{name: "empty", ds: numbered(0), fraction: 0.5, wantName: "rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := dataset.Split(tt.ds, tt.fraction, 21)
			assert.Nil(t, train)
			assert.Nil(t, test)

			var verr *dataset.ValueError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantName, verr.Name)
			assert.ErrorIs(t, err, common.ErrInvalidValue)
		})
	}
}

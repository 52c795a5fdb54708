package dataset

import (
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/Veraticus/carprice/internal/model"
)

// Split partitions ds into disjoint train and test sets. The test set holds
// ceil(testFraction*n) rows, capped so at least one row is left for training. Rows are
// assigned by a permutation drawn from seed, so the same input and seed always produce
// the same partition. Both parts keep the original relative row order.
func Split(ds *model.Dataset, testFraction float64, seed int64) (train, test *model.Dataset, err error) {
	if math.IsNaN(testFraction) || testFraction <= 0 || testFraction >= 1 {
		return nil, nil, &ValueError{
			Name:   "test_fraction",
			Value:  strconv.FormatFloat(testFraction, 'f', -1, 64),
			Reason: "must be strictly between 0 and 1",
		}
	}

	n := ds.Len()
	if n < 2 {
		return nil, nil, &ValueError{
			Name:   "rows",
			Value:  strconv.Itoa(n),
			Reason: "at least two rows are required to split",
		}
	}

	testSize := int(math.Ceil(testFraction * float64(n)))
	if testSize >= n {
		testSize = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible split, not security sensitive

	testIdx := append([]int(nil), perm[:testSize]...)
	trainIdx := append([]int(nil), perm[testSize:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	return ds.Subset(trainIdx), ds.Subset(testIdx), nil
}

// pkg/ingestion/split.go
package ingestion

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/David-Botos/ddos-prep/pkg/model"
)

// TrainTestSplit shuffles row indices with a seeded source and assigns the
// first ceil(ratio*n) of them to test and the rest to train. The same frame,
// ratio and seed always give the same partition.
func TrainTestSplit(frame *model.Frame, ratio float64, seed int64) (train, test *model.Frame, err error) {
	if ratio <= 0 || ratio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0, 1), got %v", ratio)
	}

	n := frame.Len()
	nTest := int(math.Ceil(ratio * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("cannot split %d rows with test ratio %v", n, ratio)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return frame.Subset(perm[nTest:]), frame.Subset(perm[:nTest]), nil
}

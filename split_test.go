package decisionForest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntropy(t *testing.T) {
	require.InDelta(t, 1.0, entropy([]float64{0.5, 0.5}), 1e-12, "an even two-class split carries one bit")
	require.InDelta(t, 0.0, entropy([]float64{1}), 1e-12)
	require.InDelta(t, 2.0, entropy([]float64{0.25, 0.25, 0.25, 0.25}), 1e-12)

	require.InDelta(t, 1.0, globalEntropy([]float64{0, 0, 1, 1}), 1e-12)
	require.Zero(t, globalEntropy([]float64{1, 1, 1}), "a pure node has no entropy")
}

func TestCandidateThresholds(t *testing.T) {
	ramp := make([]float64, 20)
	for i := range ramp {
		ramp[i] = float64(19 - i)
	}

	tests := []struct {
		name          string
		values        []float64
		minSupport    int
		maxThresholds int
		want          []float64
	}{
		{"trims both ends", []float64{5, 1, 4, 2, 3}, 2, 10, []float64{2, 3, 4}},
		{"samples at a stride", ramp, 0, 5, []float64{0, 4, 8, 12, 16}},
		{"deduplicates", []float64{1, 1, 2, 1, 2, 1}, 0, 10, []float64{1, 2}},
		{"trim is bounded by half the values", []float64{3, 1, 2, 4}, 100, 10, []float64{2, 3}},
		{"single value", []float64{7}, 4, 10, []float64{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, candidateThresholds(tt.values, tt.minSupport, tt.maxThresholds))
		})
	}
}

func TestCandidateThresholds_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	candidateThresholds(values, 0, 10)
	require.Equal(t, []float64{3, 1, 2}, values)
}

func TestGainRatio(t *testing.T) {
	instances := [][]float64{{0}, {0}, {1}, {1}}
	labels := []float64{0, 0, 1, 1}
	h0 := globalEntropy(labels)

	perfect, err := gainRatio(instances, labels, &DiscreteBranching{Values: []float64{0, 1}}, h0)
	require.NoError(t, err)
	require.InDelta(t, 1.0, perfect, 1e-12)

	threshold, err := gainRatio(instances, labels, &ContinuousBranching{Threshold: 1}, h0)
	require.NoError(t, err)
	require.InDelta(t, 1.0, threshold, 1e-12)

	nothing, err := gainRatio(instances, labels, &ContinuousBranching{Threshold: 0}, h0)
	require.NoError(t, err)
	require.Equal(t, 0.0, nothing, "a split sending everything one way has exactly zero gain ratio")

	_, err = gainRatio(instances, labels, &DiscreteBranching{Values: []float64{0}}, h0)
	require.ErrorIs(t, err, ErrUnseenCategory)
}

func TestGainRatio_PenalisesManyBranches(t *testing.T) {
	instances := [][]float64{{0, 0}, {1, 0}, {2, 1}, {3, 1}}
	labels := []float64{0, 0, 1, 1}
	h0 := globalEntropy(labels)

	wide, err := gainRatio(instances, labels, &DiscreteBranching{Values: []float64{0, 1, 2, 3}, Col: 0}, h0)
	require.NoError(t, err)
	narrow, err := gainRatio(instances, labels, &DiscreteBranching{Values: []float64{0, 1}, Col: 1}, h0)
	require.NoError(t, err)

	require.InDelta(t, 0.5, wide, 1e-12)
	require.InDelta(t, 1.0, narrow, 1e-12)
}

func TestDistinctValues_KeepsFirstSeenOrder(t *testing.T) {
	instances := [][]float64{{3}, {1}, {3}, {2}, {1}}
	require.Equal(t, []float64{3, 1, 2}, distinctValues(instances, 0))
}

func TestPartition(t *testing.T) {
	instances := [][]float64{{5}, {1}, {7}}
	labels := []float64{1, 0, 1}

	xs, ys, err := partition(instances, labels, &ContinuousBranching{Threshold: 4})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{5}, {7}}, xs[0])
	require.Equal(t, []float64{1, 1}, ys[0])
	require.Equal(t, [][]float64{{1}}, xs[1])
	require.Equal(t, []float64{0}, ys[1])
}

func TestFeatureSet(t *testing.T) {
	global := newFeatureSet([]int{2, 0, 1}, GlobalExclusion)
	require.Equal(t, []int{2, 0, 1}, global.values())
	require.Same(t, global, global.forChild())

	global.remove(0)
	require.Equal(t, []int{2, 1}, global.values())
	require.False(t, global.empty())

	path := newFeatureSet([]int{0, 1}, PathExclusion)
	child := path.forChild()
	require.NotSame(t, path, child)
	child.remove(1)
	require.Equal(t, []int{0, 1}, path.values(), "path exclusion keeps the parent's set untouched")
	require.Equal(t, []int{0}, child.values())

	child.remove(0)
	require.True(t, child.empty())
}

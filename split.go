package decisionForest

import (
	"fmt"
	"math"
	"slices"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"gonum.org/v1/gonum/stat"
)

// featureSet is the set of columns still available for splitting, kept in
// insertion order so that ties between equally good splits are broken the
// same way on every run.
type featureSet struct {
	columns   *linkedhashset.Set
	exclusion FeatureExclusion
}

func newFeatureSet(columns []int, exclusion FeatureExclusion) *featureSet {
	s := linkedhashset.New()
	for _, c := range columns {
		s.Add(c)
	}
	return &featureSet{columns: s, exclusion: exclusion}
}

func (fs *featureSet) values() []int {
	columns := make([]int, 0, fs.columns.Size())
	for _, v := range fs.columns.Values() {
		columns = append(columns, v.(int))
	}
	return columns
}

func (fs *featureSet) remove(column int) {
	fs.columns.Remove(column)
}

func (fs *featureSet) empty() bool {
	return fs.columns.Empty()
}

// forChild returns the set a child branch grows with: the same set under
// global exclusion, a private copy under path exclusion.
func (fs *featureSet) forChild() *featureSet {
	if fs.exclusion != PathExclusion {
		return fs
	}
	return newFeatureSet(fs.values(), fs.exclusion)
}

// entropy returns the Shannon entropy in bits of a probability distribution.
func entropy(p []float64) float64 {
	return stat.Entropy(p) / math.Ln2
}

// splitEntropy returns the instance-weighted entropy of the given branch
// tallies and the split information of the branch sizes.
func splitEntropy(tallies []*ClassProbabilities, n int) (h float64, splitInfo float64) {
	q := make([]float64, 0, len(tallies))
	for _, t := range tallies {
		if t.Total() == 0 {
			continue
		}
		w := float64(t.Total()) / float64(n)
		h += w * t.entropy()
		q = append(q, w)
	}
	return h, entropy(q)
}

// globalEntropy is the entropy of all labels reaching a node, computed the
// same way as a split with a single branch so that splits which do not
// separate anything yield exactly zero gain.
func globalEntropy(labels []float64) float64 {
	h, _ := splitEntropy([]*ClassProbabilities{NewClassProbabilities(labels)}, len(labels))
	return h
}

// gainRatio scores the partition induced by fn as information gain over
// split information.
func gainRatio(instances [][]float64, labels []float64, fn BranchingFunction, h0 float64) (float64, error) {
	tallies := make([]*ClassProbabilities, fn.Arity())
	for i := range tallies {
		tallies[i] = NewClassProbabilities(nil)
	}
	for i, x := range instances {
		b, err := fn.Branch(x)
		if err != nil {
			return 0, err
		}
		tallies[b].counts[labels[i]]++
		tallies[b].total++
	}
	h, splitInfo := splitEntropy(tallies, len(labels))
	gain := h0 - h
	if gain == 0 || splitInfo == 0 {
		return 0, nil
	}
	return gain / splitInfo, nil
}

// distinctValues returns the distinct values of a column in the order they
// first occur.
func distinctValues(instances [][]float64, column int) []float64 {
	seen := make(map[float64]bool)
	distinct := make([]float64, 0)
	for _, x := range instances {
		v := x[column]
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}

// candidateThresholds picks the thresholds tried for a continuous feature:
// the sorted values, trimmed at both ends by up to half the minimum branch
// support, sampled at a regular stride so that about maxThresholds remain.
func candidateThresholds(values []float64, minSupport, maxThresholds int) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	trim := max(min(minSupport/2, len(sorted)/2-1), 0)
	sorted = sorted[trim : len(sorted)-trim]
	stride := max(len(sorted)/maxThresholds, 1)
	thresholds := make([]float64, 0, maxThresholds)
	for i := 0; i < len(sorted); i += stride {
		if !slices.Contains(thresholds, sorted[i]) {
			thresholds = append(thresholds, sorted[i])
		}
	}
	return thresholds
}

func columnValues(instances [][]float64, column int) []float64 {
	values := make([]float64, len(instances))
	for i, x := range instances {
		values[i] = x[column]
	}
	return values
}

// partition splits instances and labels by branch index. The result holds
// one (possibly empty) subset per branch index.
func partition(instances [][]float64, labels []float64, fn BranchingFunction) ([][][]float64, [][]float64, error) {
	xs := make([][][]float64, fn.Arity())
	ys := make([][]float64, fn.Arity())
	for i, x := range instances {
		b, err := fn.Branch(x)
		if err != nil {
			return nil, nil, fmt.Errorf("partitioning on %s: %w", fn, err)
		}
		xs[b] = append(xs[b], x)
		ys[b] = append(ys[b], labels[i])
	}
	return xs, ys, nil
}

func pure(labels []float64) bool {
	for _, y := range labels[1:] {
		if y != labels[0] {
			return false
		}
	}
	return true
}

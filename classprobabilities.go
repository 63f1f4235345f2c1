package decisionForest

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ClassProbabilities is a tally of class labels over a set of instances.
// Probabilities are derived from the counts on demand.
type ClassProbabilities struct {
	counts map[float64]int
	total  int
}

// NewClassProbabilities tallies the given labels.
func NewClassProbabilities(labels []float64) *ClassProbabilities {
	cp := &ClassProbabilities{counts: make(map[float64]int)}
	for _, y := range labels {
		cp.counts[y]++
		cp.total++
	}
	return cp
}

func newClassProbabilitiesFromCounts(counts map[float64]int) *ClassProbabilities {
	cp := &ClassProbabilities{counts: make(map[float64]int, len(counts))}
	for label, n := range counts {
		cp.counts[label] = n
		cp.total += n
	}
	return cp
}

// Clone returns an independent copy of the tally.
func (cp *ClassProbabilities) Clone() *ClassProbabilities {
	return newClassProbabilitiesFromCounts(cp.counts)
}

// Total returns the number of instances tallied.
func (cp *ClassProbabilities) Total() int {
	return cp.total
}

// Count returns the number of instances with the given label.
func (cp *ClassProbabilities) Count(label float64) int {
	return cp.counts[label]
}

// Labels returns the tallied labels in ascending order.
func (cp *ClassProbabilities) Labels() []float64 {
	labels := make([]float64, 0, len(cp.counts))
	for label := range cp.counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

// ProbabilityOf returns the fraction of instances with the given label, 0
// when the label was never seen or the tally is empty.
func (cp *ClassProbabilities) ProbabilityOf(label float64) float64 {
	n, ok := cp.counts[label]
	if !ok || cp.total == 0 {
		return 0
	}
	return float64(n) / float64(cp.total)
}

// MostLikelyClass returns the label with the highest count. Ties go to the
// lowest label value.
func (cp *ClassProbabilities) MostLikelyClass() (float64, error) {
	if len(cp.counts) == 0 {
		return math.NaN(), ErrEmptyTally
	}
	best := math.NaN()
	for _, label := range cp.Labels() {
		if math.IsNaN(best) || cp.counts[label] > cp.counts[best] {
			best = label
		}
	}
	return best, nil
}

// NErrors returns the number of instances not belonging to the most likely
// class.
func (cp *ClassProbabilities) NErrors() int {
	best, err := cp.MostLikelyClass()
	if err != nil {
		return 0
	}
	return cp.total - cp.counts[best]
}

// Combine returns a new tally holding the summed counts of both tallies.
func (cp *ClassProbabilities) Combine(other *ClassProbabilities) *ClassProbabilities {
	combined := cp.Clone()
	if other == nil {
		return combined
	}
	for label, n := range other.counts {
		combined.counts[label] += n
	}
	combined.total += other.total
	return combined
}

// entropy returns the Shannon entropy in bits of the tallied labels.
func (cp *ClassProbabilities) entropy() float64 {
	if cp.total == 0 {
		return 0
	}
	p := make([]float64, 0, len(cp.counts))
	for _, label := range cp.Labels() {
		p = append(p, float64(cp.counts[label])/float64(cp.total))
	}
	return entropy(p)
}

func (cp *ClassProbabilities) String() string {
	parts := make([]string, 0, len(cp.counts))
	for _, label := range cp.Labels() {
		parts = append(parts, fmt.Sprintf("class %g: %d/%d (%.2f)", label, cp.counts[label], cp.total, cp.ProbabilityOf(label)))
	}
	return strings.Join(parts, ", ")
}

package decisionForest

import (
	"fmt"
	"math"
)

// Node is a node of a classification tree: either a *Leaf or a *Branch.
type Node interface {
	// Evaluate returns the class tally of the leaf the instance reaches.
	Evaluate(instance []float64) (*ClassProbabilities, error)
	// Size returns the number of nodes in the subtree rooted here.
	Size() int
	Depth() int
	node()
}

// Leaf is a terminal node holding the class tally of the training
// instances that reached it.
type Leaf struct {
	Probabilities *ClassProbabilities
	depth         int
}

// Branch is an internal node. Children are indexed by the branch index of
// Function; a child is nil when no training instance followed that branch.
type Branch struct {
	Function BranchingFunction
	Children []Node
	// Support is the class tally of the training instances reaching the branch.
	Support *ClassProbabilities
	// GainRatio is the score of the split chosen for the branch.
	GainRatio float64
	depth     int
	config    TreeConfig
}

func (*Leaf) node()   {}
func (*Branch) node() {}

func newLeaf(cp *ClassProbabilities, depth int) *Leaf {
	return &Leaf{Probabilities: cp, depth: depth}
}

func newBranch(depth int, config TreeConfig) *Branch {
	return &Branch{depth: depth, config: config}
}

func (l *Leaf) Evaluate([]float64) (*ClassProbabilities, error) {
	return l.Probabilities, nil
}

func (l *Leaf) Size() int {
	return 1
}

func (l *Leaf) Depth() int {
	return l.depth
}

func (b *Branch) Evaluate(instance []float64) (*ClassProbabilities, error) {
	if b.Function == nil {
		return nil, ErrNotTrained
	}
	i, err := b.Function.Branch(instance)
	if err != nil {
		return nil, err
	}
	child := b.Children[i]
	if child == nil {
		return b.Support, nil
	}
	return child.Evaluate(instance)
}

func (b *Branch) Size() int {
	size := 1
	for _, child := range b.Children {
		if child != nil {
			size += child.Size()
		}
	}
	return size
}

func (b *Branch) Depth() int {
	return b.depth
}

// growSubtree picks the split with the best gain ratio among the available
// features, removes the chosen feature from them, and develops one child
// per non-empty branch.
func (b *Branch) growSubtree(instances [][]float64, labels []float64, names []string, available *featureSet) error {
	if len(instances) == 0 {
		return ErrNoInstances
	}
	if available.empty() {
		return ErrNoFeatures
	}
	h0 := globalEntropy(labels)
	var best BranchingFunction
	bestScore := 0.0
	consider := func(fn BranchingFunction) error {
		score, err := gainRatio(instances, labels, fn, h0)
		if err != nil {
			return err
		}
		if best == nil || score > bestScore {
			best, bestScore = fn, score
		}
		return nil
	}
	for _, column := range available.values() {
		distinct := distinctValues(instances, column)
		if len(distinct) <= b.config.MaxBranches {
			err := consider(&DiscreteBranching{Values: distinct, Col: column, Name: names[column]})
			if err != nil {
				return err
			}
			continue
		}
		thresholds := candidateThresholds(columnValues(instances, column), b.config.MinBranchNodeSupport, b.config.MaxTestThresholds)
		for _, threshold := range thresholds {
			err := consider(&ContinuousBranching{Threshold: threshold, Col: column, Name: names[column]})
			if err != nil {
				return err
			}
		}
	}
	available.remove(best.Column())
	b.Function = best
	b.GainRatio = bestScore
	b.Support = NewClassProbabilities(labels)

	xs, ys, err := partition(instances, labels, best)
	if err != nil {
		return err
	}
	b.Children = make([]Node, best.Arity())
	for i := range xs {
		if len(xs[i]) == 0 {
			continue
		}
		if len(ys[i]) < b.config.MinBranchNodeSupport || available.empty() || b.depth >= b.config.MaxTreeDepth || pure(ys[i]) {
			b.Children[i] = newLeaf(NewClassProbabilities(ys[i]), b.depth+1)
			continue
		}
		child := newBranch(b.depth+1, b.config)
		err := child.growSubtree(xs[i], ys[i], names, available.forChild())
		if err != nil {
			return err
		}
		b.Children[i] = child
	}
	return nil
}

// pessimisticErrorRate is an upper confidence bound on the error rate of a
// tally, using the normal approximation to the binomial distribution. The
// z value comes from a cubic fit of the inverse normal CDF.
func pessimisticErrorRate(cp *ClassProbabilities, errorCI float64) float64 {
	z := 3.4622*errorCI*errorCI*errorCI - 3.6799*errorCI*errorCI + 2.5038*errorCI - 0.1088
	n := float64(cp.Total())
	p := float64(cp.NErrors()) / n
	return p + z*math.Sqrt(p*(1-p)/n)
}

// collapse decides whether a subtree with the given leaf tallies should be
// replaced by a single leaf. It returns the merged tally and whether the
// merged leaf's estimated errors do not exceed those of the subtree.
func collapse(leaves []*ClassProbabilities, errorCI float64) (*ClassProbabilities, bool) {
	errSubtree := 0.0
	merged := NewClassProbabilities(nil)
	for _, cp := range leaves {
		errSubtree += float64(cp.Total()) * pessimisticErrorRate(cp, errorCI)
		merged = merged.Combine(cp)
	}
	errMerged := float64(merged.Total()) * pessimisticErrorRate(merged, errorCI)
	return merged, errMerged <= errSubtree
}

// pruneSubtree walks the tree top-down, replacing a child branch by a leaf
// when doing so does not raise the pessimistic error estimate.
func (b *Branch) pruneSubtree(errorCI float64) {
	for i, child := range b.Children {
		switch c := child.(type) {
		case nil, *Leaf:
		case *Branch:
			merged, ok := collapse(c.leafTallies(nil), errorCI)
			if ok {
				b.Children[i] = newLeaf(merged, b.depth+1)
			} else {
				c.pruneSubtree(errorCI)
			}
		default:
			panic(fmt.Sprintf("unexpected node type %T", child))
		}
	}
}

func (b *Branch) leafTallies(dst []*ClassProbabilities) []*ClassProbabilities {
	for _, child := range b.Children {
		switch c := child.(type) {
		case nil:
		case *Leaf:
			dst = append(dst, c.Probabilities)
		case *Branch:
			dst = c.leafTallies(dst)
		}
	}
	return dst
}

func cloneNode(n Node) Node {
	switch c := n.(type) {
	case nil:
		return nil
	case *Leaf:
		return newLeaf(c.Probabilities.Clone(), c.depth)
	case *Branch:
		clone := newBranch(c.depth, c.config)
		clone.GainRatio = c.GainRatio
		if c.Function != nil {
			clone.Function = c.Function.Clone()
		}
		if c.Support != nil {
			clone.Support = c.Support.Clone()
		}
		if c.Children != nil {
			clone.Children = make([]Node, len(c.Children))
			for i, child := range c.Children {
				clone.Children[i] = cloneNode(child)
			}
		}
		return clone
	}
	panic(fmt.Sprintf("unexpected node type %T", n))
}

// describeNode renders a subtree depth-first, one line per node, children
// indented by a tab below a "Branch: i" line.
func describeNode(n Node) []string {
	switch c := n.(type) {
	case *Leaf:
		return []string{c.Probabilities.String()}
	case *Branch:
		if c.Function == nil {
			return []string{"(untrained)"}
		}
		lines := []string{c.Function.String()}
		for i, child := range c.Children {
			if child == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("Branch: %d", i))
			for _, line := range describeNode(child) {
				lines = append(lines, "\t"+line)
			}
		}
		return lines
	}
	panic(fmt.Sprintf("unexpected node type %T", n))
}

// importance adds support times gain ratio of every branch to the column it
// splits on.
func importance(n Node, imp []float64) {
	b, ok := n.(*Branch)
	if !ok || b.Function == nil {
		return
	}
	if c := b.Function.Column(); c < len(imp) {
		imp[c] += float64(b.Support.Total()) * b.GainRatio
	}
	for _, child := range b.Children {
		importance(child, imp)
	}
}

package decisionForest

import (
	"fmt"
	"slices"
)

// ClassCount is one entry of a serialized class tally.
type ClassCount struct {
	Label float64 `bson:"label" json:"label"`
	Count int     `bson:"count" json:"count"`
}

// NodeModel is the serialized form of a tree node. Nodes of a tree are
// stored in a flat slice in depth-first order; Children holds the positions
// of a branch's children in that slice, -1 for empty branches.
type NodeModel struct {
	Leaf      bool         `bson:"leaf" json:"leaf"`
	Depth     int          `bson:"depth" json:"depth"`
	Kind      string       `bson:"kind,omitempty" json:"kind,omitempty"`
	Column    int          `bson:"column" json:"column"`
	Name      string       `bson:"name,omitempty" json:"name,omitempty"`
	Values    []float64    `bson:"values,omitempty" json:"values,omitempty"`
	Threshold float64      `bson:"threshold" json:"threshold"`
	Children  []int        `bson:"children,omitempty" json:"children,omitempty"`
	GainRatio float64      `bson:"gain_ratio" json:"gain_ratio"`
	Classes   []ClassCount `bson:"classes" json:"classes"`
}

const (
	discreteKind   = "discrete"
	continuousKind = "continuous"
)

// TreeModel is the serialized form of a trained ClassificationTree.
type TreeModel struct {
	Config            TreeConfig  `bson:"config" json:"config"`
	AvailableFeatures []int       `bson:"available_features,omitempty" json:"available_features,omitempty"`
	FeatureNames      []string    `bson:"feature_names" json:"feature_names"`
	NumFeatures       int         `bson:"num_features" json:"num_features"`
	Validation        float64     `bson:"validation" json:"validation"`
	Nodes             []NodeModel `bson:"nodes" json:"nodes"`
}

// ForestModel is the serialized form of a trained RandomForest.
type ForestModel struct {
	Config            ForestConfig `bson:"config" json:"config"`
	AvailableFeatures []int        `bson:"available_features,omitempty" json:"available_features,omitempty"`
	Classes           int          `bson:"classes" json:"classes"`
	NumFeatures       int          `bson:"num_features" json:"num_features"`
	Trees             []*TreeModel `bson:"trees" json:"trees"`
}

func classCounts(cp *ClassProbabilities) []ClassCount {
	counts := make([]ClassCount, 0, len(cp.counts))
	for _, label := range cp.Labels() {
		counts = append(counts, ClassCount{Label: label, Count: cp.counts[label]})
	}
	return counts
}

func classProbabilitiesFromCounts(counts []ClassCount) *ClassProbabilities {
	m := make(map[float64]int, len(counts))
	for _, c := range counts {
		m[c.Label] += c.Count
	}
	return newClassProbabilitiesFromCounts(m)
}

// Model returns the serialized form of a trained tree.
func (tree *ClassificationTree) Model() (*TreeModel, error) {
	if tree.Root == nil {
		return nil, ErrNotTrained
	}
	m := &TreeModel{
		Config:            tree.Config,
		AvailableFeatures: slices.Clone(tree.AvailableFeatures),
		FeatureNames:      slices.Clone(tree.FeatureNames),
		NumFeatures:       tree.nFeatures,
		Validation:        tree.Validation,
	}
	appendNode(&m.Nodes, tree.Root)
	return m, nil
}

func appendNode(nodes *[]NodeModel, n Node) int {
	idx := len(*nodes)
	switch c := n.(type) {
	case *Leaf:
		*nodes = append(*nodes, NodeModel{Leaf: true, Depth: c.depth, Classes: classCounts(c.Probabilities)})
	case *Branch:
		m := NodeModel{Depth: c.depth, GainRatio: c.GainRatio, Column: c.Function.Column(), Classes: classCounts(c.Support)}
		switch fn := c.Function.(type) {
		case *DiscreteBranching:
			m.Kind, m.Name, m.Values = discreteKind, fn.Name, slices.Clone(fn.Values)
		case *ContinuousBranching:
			m.Kind, m.Name, m.Threshold = continuousKind, fn.Name, fn.Threshold
		}
		*nodes = append(*nodes, m)
		children := make([]int, len(c.Children))
		for i, child := range c.Children {
			if child == nil {
				children[i] = -1
				continue
			}
			children[i] = appendNode(nodes, child)
		}
		(*nodes)[idx].Children = children
	}
	return idx
}

// NewClassificationTreeFromModel rebuilds a trained tree from its
// serialized form.
func NewClassificationTreeFromModel(m *TreeModel) (*ClassificationTree, error) {
	if m == nil || len(m.Nodes) == 0 {
		return nil, fmt.Errorf("%w: tree has no nodes", ErrInvalidModel)
	}
	tree, err := NewClassificationTree(m.Config)
	if err != nil {
		return nil, err
	}
	if len(m.FeatureNames) != m.NumFeatures {
		return nil, fmt.Errorf("%w: %d feature names for %d features", ErrInvalidModel, len(m.FeatureNames), m.NumFeatures)
	}
	root, err := decodeNode(m.Nodes, 0, tree.Config, m.NumFeatures)
	if err != nil {
		return nil, err
	}
	tree.Root = root
	tree.AvailableFeatures = slices.Clone(m.AvailableFeatures)
	tree.FeatureNames = slices.Clone(m.FeatureNames)
	tree.Validation = m.Validation
	tree.nFeatures = m.NumFeatures
	return tree, nil
}

func decodeNode(nodes []NodeModel, idx int, config TreeConfig, nFeatures int) (Node, error) {
	m := nodes[idx]
	cp := classProbabilitiesFromCounts(m.Classes)
	if m.Leaf {
		return newLeaf(cp, m.Depth), nil
	}
	if m.Column < 0 || m.Column >= nFeatures {
		return nil, fmt.Errorf("%w: node %d splits on column %d of %d", ErrInvalidModel, idx, m.Column, nFeatures)
	}
	b := newBranch(m.Depth, config)
	b.Support = cp
	b.GainRatio = m.GainRatio
	switch m.Kind {
	case discreteKind:
		b.Function = &DiscreteBranching{Values: slices.Clone(m.Values), Col: m.Column, Name: m.Name}
	case continuousKind:
		b.Function = &ContinuousBranching{Threshold: m.Threshold, Col: m.Column, Name: m.Name}
	default:
		return nil, fmt.Errorf("%w: node %d has unknown kind %q", ErrInvalidModel, idx, m.Kind)
	}
	if len(m.Children) != b.Function.Arity() {
		return nil, fmt.Errorf("%w: node %d has %d children for %d branches", ErrInvalidModel, idx, len(m.Children), b.Function.Arity())
	}
	b.Children = make([]Node, len(m.Children))
	for i, c := range m.Children {
		if c == -1 {
			continue
		}
		// children always follow their parent, which also rules out cycles
		if c <= idx || c >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d has child index %d", ErrInvalidModel, idx, c)
		}
		child, err := decodeNode(nodes, c, config, nFeatures)
		if err != nil {
			return nil, err
		}
		b.Children[i] = child
	}
	return b, nil
}

// Model returns the serialized form of a trained forest.
func (forest *RandomForest) Model() (*ForestModel, error) {
	if len(forest.Trees) == 0 {
		return nil, ErrNotTrained
	}
	m := &ForestModel{
		Config:            forest.Config,
		AvailableFeatures: slices.Clone(forest.AvailableFeatures),
		Classes:           forest.Classes,
		NumFeatures:       forest.nFeatures,
		Trees:             make([]*TreeModel, len(forest.Trees)),
	}
	for i, tree := range forest.Trees {
		tm, err := tree.Model()
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.Trees[i] = tm
	}
	return m, nil
}

// NewRandomForestFromModel rebuilds a trained forest from its serialized form.
func NewRandomForestFromModel(m *ForestModel) (*RandomForest, error) {
	if m == nil || len(m.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	forest, err := NewRandomForest(m.Config)
	if err != nil {
		return nil, err
	}
	forest.Trees = make([]*ClassificationTree, len(m.Trees))
	for i, tm := range m.Trees {
		tree, err := NewClassificationTreeFromModel(tm)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if tree.nFeatures != m.NumFeatures {
			return nil, fmt.Errorf("%w: tree %d has %d features, forest has %d", ErrInvalidModel, i, tree.nFeatures, m.NumFeatures)
		}
		forest.Trees[i] = tree
	}
	forest.AvailableFeatures = slices.Clone(m.AvailableFeatures)
	forest.Classes = m.Classes
	forest.nFeatures = m.NumFeatures
	return forest, nil
}

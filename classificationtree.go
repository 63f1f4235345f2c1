package decisionForest

import (
	"fmt"
	"slices"
	"strings"
)

// ClassificationTree is a decision tree grown greedily on gain ratio and
// pruned with pessimistic error estimates.
type ClassificationTree struct {
	Config TreeConfig
	// AvailableFeatures restricts the columns the tree may split on. All
	// columns are used when it is empty.
	AvailableFeatures []int
	FeatureNames      []string
	Root              Node
	// Validation is the mean probability given to the true label of the
	// out-of-bag instances when the tree was trained on a bootstrap sample.
	Validation float64
	nFeatures  int
}

// NewClassificationTree returns an untrained tree with the given
// hyperparameters.
func NewClassificationTree(config TreeConfig) (*ClassificationTree, error) {
	if config.FeatureExclusion == "" {
		config.FeatureExclusion = GlobalExclusion
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ClassificationTree{Config: config}, nil
}

func (tree *ClassificationTree) Train(instances [][]float64, labels []float64) error {
	return tree.TrainWithFeatureNames(instances, labels, nil)
}

// TrainWithFeatureNames grows the tree on the given instances and prunes
// it. Names are used only to describe the tree. Training again replaces
// the previously learned tree.
func (tree *ClassificationTree) TrainWithFeatureNames(instances [][]float64, labels []float64, names []string) error {
	nFeatures, err := checkTrainingSet(instances, labels)
	if err != nil {
		return err
	}
	names, err = featureNames(names, nFeatures)
	if err != nil {
		return err
	}
	columns := tree.AvailableFeatures
	if len(columns) == 0 {
		columns = allColumns(nFeatures)
	}
	for _, c := range columns {
		if c < 0 || c >= nFeatures {
			return fmt.Errorf("%w: available feature %d out of range [0, %d)", ErrInvalidConfig, c, nFeatures)
		}
	}
	root := newBranch(0, tree.Config)
	err = root.growSubtree(instances, labels, names, newFeatureSet(columns, tree.Config.FeatureExclusion))
	if err != nil {
		return err
	}
	root.pruneSubtree(tree.Config.ErrorCI)
	tree.Root = root
	tree.FeatureNames = slices.Clone(names)
	tree.nFeatures = nFeatures
	return nil
}

// PredictOne returns the class tally of the leaf the instance reaches.
func (tree *ClassificationTree) PredictOne(instance []float64) (*ClassProbabilities, error) {
	if tree.Root == nil {
		return nil, ErrNotTrained
	}
	if err := checkInstance(instance, tree.nFeatures); err != nil {
		return nil, err
	}
	return tree.Root.Evaluate(instance)
}

// Predict returns the probability of class 1 for each instance.
func (tree *ClassificationTree) Predict(instances [][]float64) ([]float64, error) {
	predictions := make([]float64, len(instances))
	for i, x := range instances {
		cp, err := tree.PredictOne(x)
		if err != nil {
			return nil, fmt.Errorf("predicting instance %d: %w", i, err)
		}
		predictions[i] = cp.ProbabilityOf(1)
	}
	return predictions, nil
}

// Copy returns a deep copy of the tree, learned state included.
func (tree *ClassificationTree) Copy() Learner {
	return tree.clone()
}

func (tree *ClassificationTree) clone() *ClassificationTree {
	return &ClassificationTree{
		Config:            tree.Config,
		AvailableFeatures: slices.Clone(tree.AvailableFeatures),
		FeatureNames:      slices.Clone(tree.FeatureNames),
		Root:              cloneNode(tree.Root),
		Validation:        tree.Validation,
		nFeatures:         tree.nFeatures,
	}
}

// Size returns the number of nodes in the tree.
func (tree *ClassificationTree) Size() int {
	if tree.Root == nil {
		return 0
	}
	return tree.Root.Size()
}

// NumFeatures returns the number of features the tree was trained on.
func (tree *ClassificationTree) NumFeatures() int {
	return tree.nFeatures
}

// Describe renders the tree depth-first, one node per line.
func (tree *ClassificationTree) Describe() string {
	if tree.Root == nil {
		return ""
	}
	var sb strings.Builder
	for _, line := range describeNode(tree.Root) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (tree *ClassificationTree) String() string {
	return tree.Describe()
}

// Importance returns, per feature, the share of the tree's support-weighted
// gain ratio attributed to splits on that feature.
func (tree *ClassificationTree) Importance() []float64 {
	imp := make([]float64, tree.nFeatures)
	if tree.Root != nil {
		importance(tree.Root, imp)
	}
	return normalize(imp)
}

package decisionForest

import (
	"fmt"
)

// FeatureExclusion controls which features stay available for splitting once
// a feature has been used by a branch.
type FeatureExclusion string

const (
	// GlobalExclusion removes a feature from the whole tree once any branch
	// splits on it.
	GlobalExclusion FeatureExclusion = "global"
	// PathExclusion removes a feature only from the subtree below the branch
	// that splits on it.
	PathExclusion FeatureExclusion = "path"
)

// TreeConfig holds the hyperparameters of a ClassificationTree.
type TreeConfig struct {
	// MaxBranches is the largest number of distinct values for which a
	// feature is treated as discrete. Features with more distinct values at
	// a node are split on a threshold instead.
	MaxBranches int `yaml:"max_branches" json:"max_branches" bson:"max_branches"`
	// MinBranchNodeSupport is the smallest number of instances a child needs
	// to be developed into a branch. It also trims that many extreme values
	// (half on each end) from the threshold candidates of continuous features.
	MinBranchNodeSupport int `yaml:"min_branch_node_support" json:"min_branch_node_support" bson:"min_branch_node_support"`
	// MaxTestThresholds bounds the number of thresholds tried per continuous feature.
	MaxTestThresholds int `yaml:"max_test_thresholds" json:"max_test_thresholds" bson:"max_test_thresholds"`
	// MaxTreeDepth stops growth once a branch at this depth is reached.
	MaxTreeDepth int `yaml:"max_tree_depth" json:"max_tree_depth" bson:"max_tree_depth"`
	// ErrorCI is the confidence level used for pessimistic error estimates
	// while pruning.
	ErrorCI          float64          `yaml:"error_ci" json:"error_ci" bson:"error_ci"`
	FeatureExclusion FeatureExclusion `yaml:"feature_exclusion" json:"feature_exclusion" bson:"feature_exclusion"`
}

// DefaultTreeConfig returns the configuration used when none is given.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		MaxBranches:          10,
		MinBranchNodeSupport: 2,
		MaxTestThresholds:    10,
		MaxTreeDepth:         10,
		ErrorCI:              0.25,
		FeatureExclusion:     GlobalExclusion,
	}
}

// Validate returns an error wrapping ErrInvalidConfig when a
// hyperparameter is out of range.
func (tc TreeConfig) Validate() error {
	switch {
	case tc.MaxBranches < 1:
		return fmt.Errorf("%w: max branches must be at least 1, got %d", ErrInvalidConfig, tc.MaxBranches)
	case tc.MinBranchNodeSupport < 0:
		return fmt.Errorf("%w: min branch node support must not be negative, got %d", ErrInvalidConfig, tc.MinBranchNodeSupport)
	case tc.MaxTestThresholds < 1:
		return fmt.Errorf("%w: max test thresholds must be at least 1, got %d", ErrInvalidConfig, tc.MaxTestThresholds)
	case tc.MaxTreeDepth < 0:
		return fmt.Errorf("%w: max tree depth must not be negative, got %d", ErrInvalidConfig, tc.MaxTreeDepth)
	case tc.ErrorCI < 0 || tc.ErrorCI > 1:
		return fmt.Errorf("%w: error confidence must be within [0, 1], got %g", ErrInvalidConfig, tc.ErrorCI)
	}
	switch tc.FeatureExclusion {
	case GlobalExclusion, PathExclusion, "":
	default:
		return fmt.Errorf("%w: unknown feature exclusion %q", ErrInvalidConfig, tc.FeatureExclusion)
	}
	return nil
}

// ForestConfig holds the hyperparameters of a RandomForest. The embedded
// TreeConfig is shared by every member.
type ForestConfig struct {
	TreeConfig `yaml:",inline" json:"tree" bson:"tree"`
	// ForestSize is the number of member trees.
	ForestSize int `yaml:"forest_size" json:"forest_size" bson:"forest_size"`
	// NumRandomFeatures is the number of columns each member may split on.
	NumRandomFeatures int   `yaml:"num_random_features" json:"num_random_features" bson:"num_random_features"`
	Seed              int64 `yaml:"seed" json:"seed" bson:"seed"`
	// Bootstrap trains each member on a resample (with replacement) of the
	// training instances. When false members see the instances unchanged.
	Bootstrap bool `yaml:"bootstrap" json:"bootstrap" bson:"bootstrap"`
	// Workers bounds the number of members trained at once; 0 means one per CPU.
	Workers int    `yaml:"workers" json:"workers" bson:"workers"`
	Logger  Logger `yaml:"-" json:"-" bson:"-"`
}

// DefaultForestConfig returns the configuration used when none is given.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		TreeConfig:        DefaultTreeConfig(),
		ForestSize:        100,
		NumRandomFeatures: 3,
		Seed:              1,
		Bootstrap:         true,
	}
}

func (fc ForestConfig) Validate() error {
	if fc.ForestSize < 1 {
		return fmt.Errorf("%w: forest size must be at least 1, got %d", ErrInvalidConfig, fc.ForestSize)
	}
	if fc.NumRandomFeatures < 1 {
		return fmt.Errorf("%w: number of random features must be at least 1, got %d", ErrInvalidConfig, fc.NumRandomFeatures)
	}
	if fc.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, fc.Workers)
	}
	return fc.TreeConfig.Validate()
}

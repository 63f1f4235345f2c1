package decisionForest

// TreeError represents an error raised while growing or evaluating
// classification trees and forests.
type TreeError string

const (
	// ErrUnseenCategory is returned when a discrete branching function meets a
	// feature value that was not present among the instances it was fit on.
	ErrUnseenCategory = TreeError("encountered a feature value not seen in training")
	// ErrEmptyTally is returned when asking an empty tally for its most likely class.
	ErrEmptyTally = TreeError("class tally is empty")
	ErrNoInstances = TreeError("no training instances")
	ErrNoFeatures  = TreeError("no features available for splitting")
	ErrLabelCount  = TreeError("number of labels does not match number of instances")
	// ErrRaggedInstances is returned when instances do not share a common length.
	ErrRaggedInstances = TreeError("instances have different numbers of features")
	ErrFeatureNames    = TreeError("number of feature names does not match number of features")
	ErrInvalidConfig   = TreeError("invalid configuration")
	ErrNotTrained      = TreeError("model has not been trained")
	ErrInvalidModel    = TreeError("invalid model document")
)

func (te TreeError) Error() string {
	return string(te)
}

package decisionForest

import (
	"fmt"
	"strconv"
)

// Learner is the contract shared by trees and forests: it can be trained,
// asked for the probability of class 1 for each instance, and copied into
// an independent instance that can be trained or used concurrently.
type Learner interface {
	Train(instances [][]float64, labels []float64) error
	Predict(instances [][]float64) ([]float64, error)
	Copy() Learner
}

var (
	_ Learner = (*ClassificationTree)(nil)
	_ Learner = (*RandomForest)(nil)
)

// checkTrainingSet validates a training set and returns its number of features.
func checkTrainingSet(instances [][]float64, labels []float64) (int, error) {
	if len(instances) == 0 {
		return 0, ErrNoInstances
	}
	if len(labels) != len(instances) {
		return 0, fmt.Errorf("%w: %d labels for %d instances", ErrLabelCount, len(labels), len(instances))
	}
	nFeatures := len(instances[0])
	if nFeatures == 0 {
		return 0, ErrNoFeatures
	}
	for i, x := range instances {
		if len(x) != nFeatures {
			return 0, fmt.Errorf("%w: instance %d has %d features, expected %d", ErrRaggedInstances, i, len(x), nFeatures)
		}
	}
	return nFeatures, nil
}

func checkInstance(instance []float64, nFeatures int) error {
	if len(instance) != nFeatures {
		return fmt.Errorf("%w: got %d features, expected %d", ErrRaggedInstances, len(instance), nFeatures)
	}
	return nil
}

// featureNames returns names when it matches the number of features, or
// column numbers when names is empty.
func featureNames(names []string, nFeatures int) ([]string, error) {
	if len(names) == 0 {
		names = make([]string, nFeatures)
		for i := range names {
			names[i] = strconv.Itoa(i)
		}
		return names, nil
	}
	if len(names) != nFeatures {
		return nil, fmt.Errorf("%w: %d names for %d features", ErrFeatureNames, len(names), nFeatures)
	}
	return names, nil
}

func allColumns(nFeatures int) []int {
	columns := make([]int, nFeatures)
	for i := range columns {
		columns[i] = i
	}
	return columns
}

func normalize(values []float64) []float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if sum > 0 {
		for i := range values {
			values[i] /= sum
		}
	}
	return values
}

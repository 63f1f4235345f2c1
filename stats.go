package decisionForest

import (
	"fmt"
	"math"
)

// ClassificationStats summarises how well predicted probabilities of
// class 1 match true binary labels. Values of at least 0.5 count as
// positive on both sides.
type ClassificationStats struct {
	TP, TN, FP, FN int
	Accuracy       float64
	BrierScore     float64
	// MCC is the Matthews correlation coefficient, 0 when undefined.
	MCC float64
}

// NewClassificationStats computes the statistics of the given predictions.
func NewClassificationStats(trueY, predictedY []float64) (ClassificationStats, error) {
	var s ClassificationStats
	if len(trueY) != len(predictedY) {
		return s, fmt.Errorf("%w: %d true labels for %d predictions", ErrLabelCount, len(trueY), len(predictedY))
	}
	if len(trueY) == 0 {
		return s, ErrNoInstances
	}
	for i, y := range trueY {
		p := predictedY[i]
		s.BrierScore += (y - p) * (y - p)
		switch {
		case y >= 0.5 && p >= 0.5:
			s.TP++
		case y >= 0.5:
			s.FN++
		case p < 0.5:
			s.TN++
		default:
			s.FP++
		}
	}
	n := float64(len(trueY))
	s.BrierScore /= n
	s.Accuracy = float64(s.TP+s.TN) / n
	tp, tn, fp, fn := float64(s.TP), float64(s.TN), float64(s.FP), float64(s.FN)
	if d := (tp + fp) * (tp + fn) * (tn + fp) * (tn + fn); d > 0 {
		s.MCC = (tp*tn - fp*fn) / math.Sqrt(d)
	}
	return s, nil
}

func (s ClassificationStats) String() string {
	return fmt.Sprintf("accuracy %.3f, brier %.3f, mcc %.3f (tp %d, tn %d, fp %d, fn %d)", s.Accuracy, s.BrierScore, s.MCC, s.TP, s.TN, s.FP, s.FN)
}

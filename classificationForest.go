package decisionForest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

var NUM_CPU = runtime.NumCPU()

// RandomForest is an ensemble of classification trees, each trained on a
// random subset of the features and, optionally, a bootstrap sample of the
// instances. Predictions sum the class tallies of all members.
type RandomForest struct {
	Config ForestConfig
	// AvailableFeatures restricts the columns members are drawn from. All
	// columns are used when it is empty.
	AvailableFeatures []int
	Trees             []*ClassificationTree
	// Classes is the number of distinct labels seen in training.
	Classes   int
	nFeatures int
}

type memberPlan struct {
	features []int
	seed     int64
}

// NewRandomForest returns an untrained forest with the given hyperparameters.
func NewRandomForest(config ForestConfig) (*RandomForest, error) {
	if config.FeatureExclusion == "" {
		config.FeatureExclusion = GlobalExclusion
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RandomForest{Config: config}, nil
}

func (forest *RandomForest) logger() Logger {
	if forest.Config.Logger == nil {
		return nopLogger{}
	}
	return forest.Config.Logger
}

func (forest *RandomForest) Train(instances [][]float64, labels []float64) error {
	return forest.TrainWithFeatureNames(instances, labels, nil)
}

// TrainWithFeatureNames trains every member of the forest. Member feature
// subsets and sampling seeds are drawn up front from a generator seeded with
// Config.Seed, so members can then be trained concurrently while the result
// stays reproducible.
func (forest *RandomForest) TrainWithFeatureNames(instances [][]float64, labels []float64, names []string) error {
	nFeatures, err := checkTrainingSet(instances, labels)
	if err != nil {
		return err
	}
	names, err = featureNames(names, nFeatures)
	if err != nil {
		return err
	}
	columns := forest.AvailableFeatures
	if len(columns) == 0 {
		columns = allColumns(nFeatures)
	}
	for _, c := range columns {
		if c < 0 || c >= nFeatures {
			return fmt.Errorf("%w: available feature %d out of range [0, %d)", ErrInvalidConfig, c, nFeatures)
		}
	}

	rng := rand.New(rand.NewSource(forest.Config.Seed))
	k := min(len(columns), forest.Config.NumRandomFeatures)
	plans := make([]memberPlan, forest.Config.ForestSize)
	for t := range plans {
		perm := rng.Perm(len(columns))
		selected := make([]int, k)
		for i := range selected {
			selected[i] = columns[perm[i]]
		}
		slices.Sort(selected)
		plans[t] = memberPlan{features: selected, seed: rng.Int63()}
	}

	workers := forest.Config.Workers
	if workers == 0 {
		workers = NUM_CPU
	}
	log := forest.logger()
	trees := make([]*ClassificationTree, len(plans))
	progress := 0
	mutex := &sync.Mutex{}
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for t, plan := range plans {
		g.Go(func() error {
			log.Logf(">> building %dth tree on features %v...", t, plan.features)
			tree, err := forest.buildTree(instances, labels, names, plan)
			if err != nil {
				return fmt.Errorf("training tree %d: %w", t, err)
			}
			trees[t] = tree
			mutex.Lock()
			progress++
			log.Logf("training progress %.0f%%", float64(progress)/float64(len(plans))*100)
			mutex.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	forest.Trees = trees
	forest.Classes = len(NewClassProbabilities(labels).Labels())
	forest.nFeatures = nFeatures
	return nil
}

func (forest *RandomForest) buildTree(instances [][]float64, labels []float64, names []string, plan memberPlan) (*ClassificationTree, error) {
	tree, err := NewClassificationTree(forest.Config.TreeConfig)
	if err != nil {
		return nil, err
	}
	tree.AvailableFeatures = plan.features
	if !forest.Config.Bootstrap {
		return tree, tree.TrainWithFeatureNames(instances, labels, names)
	}

	rng := rand.New(rand.NewSource(plan.seed))
	samples := make([][]float64, len(instances))
	samplesLabels := make([]float64, len(instances))
	used := make([]bool, len(instances))
	for i := range samples {
		j := rng.Intn(len(instances))
		samples[i] = instances[j]
		samplesLabels[i] = labels[j]
		used[j] = true
	}
	if err := tree.TrainWithFeatureNames(samples, samplesLabels, names); err != nil {
		return nil, err
	}
	count := 0
	e := 0.0
	for i, x := range instances {
		if used[i] {
			continue
		}
		cp, err := tree.PredictOne(x)
		if errors.Is(err, ErrUnseenCategory) {
			continue
		}
		if err != nil {
			return nil, err
		}
		count++
		e += cp.ProbabilityOf(labels[i])
	}
	if count > 0 {
		tree.Validation = e / float64(count)
	}
	return tree, nil
}

// PredictOne returns the sum of the class tallies every member assigns to
// the instance.
func (forest *RandomForest) PredictOne(instance []float64) (*ClassProbabilities, error) {
	if len(forest.Trees) == 0 {
		return nil, ErrNotTrained
	}
	combined := NewClassProbabilities(nil)
	for t, tree := range forest.Trees {
		cp, err := tree.PredictOne(instance)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		combined = combined.Combine(cp)
	}
	return combined, nil
}

// Predict returns the probability of class 1 for each instance according to
// the combined member tallies.
func (forest *RandomForest) Predict(instances [][]float64) ([]float64, error) {
	predictions := make([]float64, len(instances))
	for i, x := range instances {
		cp, err := forest.PredictOne(x)
		if err != nil {
			return nil, fmt.Errorf("predicting instance %d: %w", i, err)
		}
		predictions[i] = cp.ProbabilityOf(1)
	}
	return predictions, nil
}

// MemberPredictions returns the predictions of every member, indexed by
// member then instance.
func (forest *RandomForest) MemberPredictions(instances [][]float64) ([][]float64, error) {
	if len(forest.Trees) == 0 {
		return nil, ErrNotTrained
	}
	predictions := make([][]float64, len(forest.Trees))
	for t, tree := range forest.Trees {
		p, err := tree.Predict(instances)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
		predictions[t] = p
	}
	return predictions, nil
}

// WeightedPredict averages member predictions weighted by their
// out-of-bag validation. Members whose weight is not positive are ignored;
// when no member has a positive weight it falls back to Predict.
func (forest *RandomForest) WeightedPredict(instances [][]float64) ([]float64, error) {
	weights := make([]float64, len(forest.Trees))
	total := 0.0
	for t, tree := range forest.Trees {
		e := 1.0001 - tree.Validation
		w := 0.5 * math.Log(float64(forest.Classes-1)*(1-e)/e)
		if w > 0 {
			weights[t] = w
			total += w
		}
	}
	if total == 0 {
		return forest.Predict(instances)
	}
	predictions := make([]float64, len(instances))
	for i, x := range instances {
		v := 0.0
		for t, tree := range forest.Trees {
			if weights[t] == 0 {
				continue
			}
			cp, err := tree.PredictOne(x)
			if err != nil {
				return nil, fmt.Errorf("predicting instance %d with tree %d: %w", i, t, err)
			}
			v += cp.ProbabilityOf(1) * weights[t]
		}
		predictions[i] = v / total
	}
	return predictions, nil
}

// Copy returns a deep copy of the forest, trained members included.
func (forest *RandomForest) Copy() Learner {
	clone := &RandomForest{
		Config:            forest.Config,
		AvailableFeatures: slices.Clone(forest.AvailableFeatures),
		Classes:           forest.Classes,
		nFeatures:         forest.nFeatures,
	}
	if forest.Trees != nil {
		clone.Trees = make([]*ClassificationTree, len(forest.Trees))
		for i, tree := range forest.Trees {
			clone.Trees[i] = tree.clone()
		}
	}
	return clone
}

// Reseeded returns an untrained forest with the same hyperparameters and
// the seed incremented by one.
func (forest *RandomForest) Reseeded() *RandomForest {
	config := forest.Config
	config.Seed++
	return &RandomForest{Config: config, AvailableFeatures: slices.Clone(forest.AvailableFeatures)}
}

// NumFeatures returns the number of features the forest was trained on.
func (forest *RandomForest) NumFeatures() int {
	return forest.nFeatures
}

// Importance averages the feature importance of the members.
func (forest *RandomForest) Importance() []float64 {
	imp := make([]float64, forest.nFeatures)
	if len(forest.Trees) == 0 {
		return imp
	}
	for _, tree := range forest.Trees {
		z := tree.Importance()
		for i := range imp {
			imp[i] += z[i]
		}
	}
	for i := range imp {
		imp[i] /= float64(len(forest.Trees))
	}
	return imp
}

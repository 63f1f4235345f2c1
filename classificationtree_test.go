package decisionForest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// restaurantData is the classic "will we wait for a table" data set.
func restaurantData() ([][]float64, []float64, []string) {
	X := [][]float64{
		{0, 0, 1, 0, 0},
		{0, 0, 1, 0, 3},
		{1, 0, 0, 0, 0},
		{0, 1, 1, 0, 1},
		{0, 1, 0, 0, 6},
		{1, 0, 1, 1, 0},
		{1, 0, 0, 1, 0},
		{0, 0, 1, 1, 0},
		{1, 1, 0, 1, 6},
		{1, 1, 1, 0, 1},
		{0, 0, 0, 0, 0},
		{1, 1, 1, 0, 3},
	}
	Y := []float64{1, 0, 1, 1, 0, 1, 0, 1, 0, 0, 0, 1}
	names := []string{"bar", "fri/sat", "hungry", "rain", "estimate"}
	return X, Y, names
}

func restaurantConfig() TreeConfig {
	config := DefaultTreeConfig()
	config.MaxBranches = 5
	config.MinBranchNodeSupport = 1
	config.MaxTestThresholds = 10
	config.MaxTreeDepth = 5
	return config
}

func separableData() ([][]float64, []float64) {
	return [][]float64{{0}, {0}, {1}, {1}}, []float64{0, 0, 1, 1}
}

// xorData labels rows with f0 XOR f1; f2 is constant.
func xorData() ([][]float64, []float64) {
	var X [][]float64
	var Y []float64
	for i := 0; i < 2; i++ {
		for _, row := range [][]float64{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}} {
			X = append(X, row)
			if row[0] != row[1] {
				Y = append(Y, 1)
			} else {
				Y = append(Y, 0)
			}
		}
	}
	return X, Y
}

func trainedTree(t *testing.T, config TreeConfig, X [][]float64, Y []float64, names []string) *ClassificationTree {
	t.Helper()
	tree, err := NewClassificationTree(config)
	require.NoError(t, err)
	require.NoError(t, tree.TrainWithFeatureNames(X, Y, names))
	return tree
}

func TestClassificationTree_Separable(t *testing.T) {
	X, Y := separableData()
	tree := trainedTree(t, DefaultTreeConfig(), X, Y, nil)

	predictions, err := tree.Predict(X)
	require.NoError(t, err)
	require.Equal(t, Y, predictions)
	require.Equal(t, 3, tree.Size())
	require.Equal(t, []float64{1}, tree.Importance())
	require.Contains(t, tree.Describe(), "0={0,1}")
}

func TestClassificationTree_ContinuousSplit(t *testing.T) {
	X, Y := separableData()
	config := DefaultTreeConfig()
	config.MaxBranches = 1
	tree := trainedTree(t, config, X, Y, nil)

	predictions, err := tree.Predict(X)
	require.NoError(t, err)
	require.Equal(t, Y, predictions)
	require.Contains(t, tree.Describe(), "0 >= 1")

	predictions, err = tree.Predict([][]float64{{-3}, {0.5}, {42}})
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 1}, predictions)
}

func TestClassificationTree_Restaurant(t *testing.T) {
	X, Y, names := restaurantData()
	tree := trainedTree(t, restaurantConfig(), X, Y, names)
	again := trainedTree(t, restaurantConfig(), X, Y, names)

	require.Equal(t, tree.Describe(), again.Describe(), "training must be deterministic")

	p1, err := tree.Predict(X)
	require.NoError(t, err)
	p2, err := again.Predict(X)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	for _, p := range p1 {
		require.GreaterOrEqual(t, p, 0.0)
		require.LessOrEqual(t, p, 1.0)
	}

	_, ok := tree.Root.(*Branch)
	require.True(t, ok, "the root is always a branch")

	for _, line := range strings.Split(strings.TrimSpace(tree.Describe()), "\n") {
		line = strings.TrimLeft(line, "\t")
		if strings.HasPrefix(line, "Branch: ") || strings.HasPrefix(line, "class ") {
			continue
		}
		found := false
		for _, name := range names {
			if strings.HasPrefix(line, name) {
				found = true
			}
		}
		require.True(t, found, "unexpected split line %q", line)
	}
}

func TestClassificationTree_FeatureExclusion(t *testing.T) {
	X, Y := xorData()
	config := DefaultTreeConfig()
	config.MinBranchNodeSupport = 1
	config.MaxBranches = 5
	config.MaxTreeDepth = 5

	global := trainedTree(t, config, X, Y, nil)
	predictions, err := global.Predict(X)
	require.NoError(t, err)
	for i, x := range X {
		if x[0] == 0 {
			require.Equal(t, Y[i], predictions[i], "instance %d", i)
		} else {
			require.Equal(t, 0.5, predictions[i], "instance %d", i)
		}
	}

	config.FeatureExclusion = PathExclusion
	path := trainedTree(t, config, X, Y, nil)
	predictions, err = path.Predict(X)
	require.NoError(t, err)
	require.Equal(t, Y, predictions)
}

func TestClassificationTree_AvailableFeatures(t *testing.T) {
	X, Y, _ := restaurantData()
	tree, err := NewClassificationTree(restaurantConfig())
	require.NoError(t, err)
	tree.AvailableFeatures = []int{1, 3}
	require.NoError(t, tree.Train(X, Y))

	imp := tree.Importance()
	require.Len(t, imp, 5)
	for _, c := range []int{0, 2, 4} {
		require.Zero(t, imp[c])
	}

	tree.AvailableFeatures = []int{5}
	require.ErrorIs(t, tree.Train(X, Y), ErrInvalidConfig)
}

func TestClassificationTree_Copy(t *testing.T) {
	X, Y := separableData()
	tree := trainedTree(t, DefaultTreeConfig(), X, Y, []string{"x"})

	clone, ok := tree.Copy().(*ClassificationTree)
	require.True(t, ok)
	require.Equal(t, tree.Describe(), clone.Describe())

	flipped := []float64{1, 1, 0, 0}
	require.NoError(t, clone.Train(X, flipped))

	predictions, err := tree.Predict(X)
	require.NoError(t, err)
	require.Equal(t, Y, predictions)
	predictions, err = clone.Predict(X)
	require.NoError(t, err)
	require.Equal(t, flipped, predictions)
}

func TestClassificationTree_UnseenCategory(t *testing.T) {
	X, Y := separableData()
	tree := trainedTree(t, DefaultTreeConfig(), X, Y, nil)

	_, err := tree.Predict([][]float64{{0}, {2}})
	require.ErrorIs(t, err, ErrUnseenCategory)
	require.Contains(t, err.Error(), "predicting instance 1")
}

func TestClassificationTree_Errors(t *testing.T) {
	config := DefaultTreeConfig()
	config.MaxBranches = 0
	_, err := NewClassificationTree(config)
	require.ErrorIs(t, err, ErrInvalidConfig)

	tree, err := NewClassificationTree(DefaultTreeConfig())
	require.NoError(t, err)

	_, err = tree.Predict([][]float64{{0}})
	require.ErrorIs(t, err, ErrNotTrained)
	_, err = tree.Model()
	require.ErrorIs(t, err, ErrNotTrained)

	require.ErrorIs(t, tree.Train(nil, nil), ErrNoInstances)
	require.ErrorIs(t, tree.Train([][]float64{{0}, {1}}, []float64{0}), ErrLabelCount)
	require.ErrorIs(t, tree.Train([][]float64{{0}, {1, 2}}, []float64{0, 1}), ErrRaggedInstances)
	require.ErrorIs(t, tree.Train([][]float64{{}, {}}, []float64{0, 1}), ErrNoFeatures)
	require.ErrorIs(t, tree.TrainWithFeatureNames([][]float64{{0}, {1}}, []float64{0, 1}, []string{"a", "b"}), ErrFeatureNames)

	X, Y := separableData()
	require.NoError(t, tree.Train(X, Y))
	_, err = tree.Predict([][]float64{{0, 1}})
	require.ErrorIs(t, err, ErrRaggedInstances)
}

func TestClassificationTree_DefaultExclusion(t *testing.T) {
	config := DefaultTreeConfig()
	config.FeatureExclusion = ""
	tree, err := NewClassificationTree(config)
	require.NoError(t, err)
	require.Equal(t, GlobalExclusion, tree.Config.FeatureExclusion)
}

func TestClassificationTree_Model(t *testing.T) {
	X, Y, names := restaurantData()
	tree := trainedTree(t, restaurantConfig(), X, Y, names)

	m, err := tree.Model()
	require.NoError(t, err)
	require.Len(t, m.Nodes, tree.Size())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded TreeModel
	require.NoError(t, json.Unmarshal(data, &decoded))

	restored, err := NewClassificationTreeFromModel(&decoded)
	require.NoError(t, err)
	require.Equal(t, tree.Describe(), restored.Describe())
	require.Equal(t, names, restored.FeatureNames)

	want, err := tree.Predict(X)
	require.NoError(t, err)
	got, err := restored.Predict(X)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestClassificationTree_ModelWithEmptyBranch(t *testing.T) {
	root := stump(1, 0, newLeaf(NewClassProbabilities([]float64{1, 1}), 1), nil, []float64{1, 1, 0})
	tree := &ClassificationTree{Config: DefaultTreeConfig(), FeatureNames: []string{"x"}, Root: root, nFeatures: 1}

	m, err := tree.Model()
	require.NoError(t, err)
	require.Equal(t, []int{1, -1}, m.Nodes[0].Children)

	restored, err := NewClassificationTreeFromModel(m)
	require.NoError(t, err)
	predictions, err := restored.Predict([][]float64{{0}, {2}})
	require.NoError(t, err)
	require.InDelta(t, 2.0/3, predictions[0], 1e-12)
	require.Equal(t, 1.0, predictions[1])
}

func TestNewClassificationTreeFromModel_Invalid(t *testing.T) {
	X, Y := separableData()
	tree := trainedTree(t, DefaultTreeConfig(), X, Y, nil)

	tests := []struct {
		name   string
		mutate func(m *TreeModel)
	}{
		{"no nodes", func(m *TreeModel) { m.Nodes = nil }},
		{"backward child", func(m *TreeModel) { m.Nodes[0].Children[1] = 0 }},
		{"child out of range", func(m *TreeModel) { m.Nodes[0].Children[0] = 9 }},
		{"missing children", func(m *TreeModel) { m.Nodes[0].Children = m.Nodes[0].Children[:1] }},
		{"unknown kind", func(m *TreeModel) { m.Nodes[0].Kind = "oblique" }},
		{"column out of range", func(m *TreeModel) { m.Nodes[0].Column = 3 }},
		{"feature names", func(m *TreeModel) { m.FeatureNames = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tree.Model()
			require.NoError(t, err)
			tt.mutate(m)
			_, err = NewClassificationTreeFromModel(m)
			require.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

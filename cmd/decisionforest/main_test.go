package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeidlermicha/decisionForest"
	"github.com/zeidlermicha/decisionForest/store"
)

const datasetJSON = `{
	"features": ["bar", "fri/sat", "hungry", "rain", "estimate"],
	"instances": [
		[0,0,1,0,0], [0,0,1,0,3], [1,0,0,0,0], [0,1,1,0,1],
		[0,1,0,0,6], [1,0,1,1,0], [1,0,0,1,0], [0,0,1,1,0],
		[1,1,0,1,6], [1,1,1,0,1], [0,0,0,0,0], [1,1,1,0,3]
	],
	"labels": [1,0,1,1,0,1,0,1,0,0,0,1]
}`

func testDataset(t *testing.T) *dataset {
	t.Helper()
	ds, err := readDataset(strings.NewReader(datasetJSON))
	require.NoError(t, err)
	return ds
}

func TestReadDataset(t *testing.T) {
	ds := testDataset(t)
	require.Len(t, ds.Instances, 12)
	require.Len(t, ds.Labels, 12)
	require.Equal(t, "estimate", ds.Features[4])

	_, err := readDataset(strings.NewReader(`{"instances": []}`))
	require.Error(t, err)
	_, err = readDataset(strings.NewReader(`{"instances": [[1]], "labels": [1, 0]}`))
	require.Error(t, err)
	_, err = readDataset(strings.NewReader(`not json`))
	require.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	config, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, decisionForest.DefaultForestConfig(), config)

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("max_branches: 5\nmin_branch_node_support: 1\nfeature_exclusion: path\nforest_size: 7\nbootstrap: false\n"), 0o644))
	config, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 5, config.MaxBranches)
	require.Equal(t, 1, config.MinBranchNodeSupport)
	require.Equal(t, decisionForest.PathExclusion, config.FeatureExclusion)
	require.Equal(t, 7, config.ForestSize)
	require.False(t, config.Bootstrap)
	require.Equal(t, 10, config.MaxTestThresholds)

	require.NoError(t, os.WriteFile(path, []byte("forest_size: 0\n"), 0o644))
	_, err = loadConfig(path)
	require.ErrorIs(t, err, decisionForest.ErrInvalidConfig)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("DECISIONFOREST_TEST", "value")
	require.Equal(t, "value", getEnv("DECISIONFOREST_TEST", "fallback"))
	require.Equal(t, "fallback", getEnv("DECISIONFOREST_UNSET", "fallback"))
}

func growDocument(t *testing.T, forest bool) *store.Document {
	t.Helper()
	config := &growCmdConfig{rootCmdConfig: &rootCmdConfig{}, name: "restaurant", forest: forest}
	hyperparameters := decisionForest.DefaultForestConfig()
	hyperparameters.ForestSize = 5
	hyperparameters.MaxBranches = 1
	doc, err := config.grow(hyperparameters, testDataset(t))
	require.NoError(t, err)
	return doc
}

func TestGrow(t *testing.T) {
	doc := growDocument(t, false)
	require.Equal(t, store.TreeKind, doc.Kind)
	require.Equal(t, "restaurant", doc.Name)
	require.NotEmpty(t, doc.ID)

	doc = growDocument(t, true)
	require.Equal(t, store.ForestKind, doc.Kind)
	require.Len(t, doc.Forest.Trees, 5)

	config := &growCmdConfig{rootCmdConfig: &rootCmdConfig{}, name: "x"}
	_, err := config.grow(decisionForest.DefaultForestConfig(), &dataset{Instances: [][]float64{{1}}})
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	description, err := describe(growDocument(t, false))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(description, "tree restaurant ("))
	require.Contains(t, description, " nodes\n")

	description, err = describe(growDocument(t, true))
	require.NoError(t, err)
	require.Contains(t, description, "5 trees\n")
	require.Contains(t, description, "tree 4 on features")
}

func TestPredict(t *testing.T) {
	ds := testDataset(t)
	learner, err := growDocument(t, false).Learner()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, predict(&out, learner, ds, false))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 13)
	require.True(t, strings.HasPrefix(lines[12], "accuracy "))

	out.Reset()
	ds.Labels = nil
	require.NoError(t, predict(&out, learner, ds, false))
	require.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 12)
}

func TestRouter(t *testing.T) {
	doc := growDocument(t, true)
	learner, err := doc.Learner()
	require.NoError(t, err)
	router := newRouter(doc, learner)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/model", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var model modelResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&model))
	require.Equal(t, doc.ID, model.ID)
	require.Equal(t, "forest", model.Kind)
	require.Equal(t, 5, model.Size)
	require.Len(t, model.FeatureNames, 5)

	body, err := json.Marshal(predictRequest{Instances: [][]float64{{0, 0, 1, 0, 0}, {1, 1, 0, 1, 6}}})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp predictResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Predictions, 2)

	body, err = json.Marshal(predictRequest{Instances: [][]float64{{0, 1}}})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCLI_GrowAndDescribe(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(input, []byte(datasetJSON), 0o644))
	storeURL := "file://" + filepath.Join(dir, "models")

	cmd := cliParser()
	cmd.SetArgs([]string{"grow", "--store", storeURL, "--input", input, "--name", "restaurant"})
	require.NoError(t, cmd.Execute())

	s, err := store.Open(context.Background(), storeURL)
	require.NoError(t, err)
	doc, err := s.Load(context.Background(), "restaurant")
	require.NoError(t, err)
	require.Equal(t, store.TreeKind, doc.Kind)
	require.Equal(t, []string{"bar", "fri/sat", "hungry", "rain", "estimate"}, doc.Tree.FeatureNames)
}

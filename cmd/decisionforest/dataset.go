package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// dataset is the JSON input of the grow and predict commands. Labels are
// optional when predicting.
type dataset struct {
	Features  []string    `json:"features"`
	Instances [][]float64 `json:"instances"`
	Labels    []float64   `json:"labels,omitempty"`
}

func readDataset(r io.Reader) (*dataset, error) {
	var ds dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %v", err)
	}
	if len(ds.Instances) == 0 {
		return nil, fmt.Errorf("dataset has no instances")
	}
	if len(ds.Labels) > 0 && len(ds.Labels) != len(ds.Instances) {
		return nil, fmt.Errorf("dataset has %d labels for %d instances", len(ds.Labels), len(ds.Instances))
	}
	return &ds, nil
}

// readDatasetFile reads a dataset from path, or STDIN when path is empty or "-".
func readDatasetFile(path string, l logger) (*dataset, error) {
	if path == "" || path == "-" {
		l.Logf("Reading dataset from STDIN...")
		return readDataset(os.Stdin)
	}
	l.Logf("Opening %s to read dataset...", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset at %s: %v", path, err)
	}
	defer f.Close()
	return readDataset(f)
}

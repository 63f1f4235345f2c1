package main

import (
	"fmt"
	"os"

	"github.com/zeidlermicha/decisionForest"
	"gopkg.in/yaml.v3"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadConfig reads hyperparameters from a YAML file over the defaults. Tree
// settings sit at the top level next to the forest ones:
//
//	max_branches: 5
//	min_branch_node_support: 1
//	forest_size: 50
//	num_random_features: 2
func loadConfig(path string) (decisionForest.ForestConfig, error) {
	config := decisionForest.DefaultForestConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config from %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config from %s: %v", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("config from %s: %w", path, err)
	}
	return config, nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeidlermicha/decisionForest"
	"github.com/zeidlermicha/decisionForest/store"
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput string
	name      string
	forest    bool
	print     bool
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a tree or a forest from a set of data",
		Long:  `Grow a classification tree, or a random forest, from a JSON data set and save it in the model store.`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			hyperparameters, err := loadConfig(config.configFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := readDatasetFile(config.dataInput, config.logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := store.Open(ctx, config.storeURL)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			defer s.Close()
			doc, err := config.grow(hyperparameters, ds)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			config.Logf("Saving %s %s to %s...", doc.Kind, doc.Name, config.storeURL)
			err = s.Save(ctx, doc)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Done")
			if config.print {
				description, err := describe(doc)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(7)
				}
				fmt.Print(description)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to a JSON file with features, instances and labels to grow the model from (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.name), "name", "n", "", "name under which the model is saved (required)")
	cmd.PersistentFlags().BoolVar(&(config.forest), "forest", false, "grow a random forest instead of a single tree")
	cmd.PersistentFlags().BoolVarP(&(config.print), "print", "p", false, "print the grown model to STDOUT")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if gcc.name == "" {
		return fmt.Errorf("required name flag was not set")
	}
	return nil
}

func (gcc *growCmdConfig) grow(hyperparameters decisionForest.ForestConfig, ds *dataset) (*store.Document, error) {
	if len(ds.Labels) == 0 {
		return nil, fmt.Errorf("dataset has no labels to grow from")
	}
	if !gcc.forest {
		gcc.Logf("Growing tree from a set with %d instances and %d features...", len(ds.Instances), len(ds.Instances[0]))
		tree, err := decisionForest.NewClassificationTree(hyperparameters.TreeConfig)
		if err != nil {
			return nil, err
		}
		if err := tree.TrainWithFeatureNames(ds.Instances, ds.Labels, ds.Features); err != nil {
			return nil, fmt.Errorf("growing the tree: %w", err)
		}
		gcc.Logf("Grown tree has %d nodes", tree.Size())
		return store.NewTreeDocument(gcc.name, tree)
	}
	gcc.Logf("Growing forest of %d trees from a set with %d instances and %d features...", hyperparameters.ForestSize, len(ds.Instances), len(ds.Instances[0]))
	hyperparameters.Logger = gcc.logger
	forest, err := decisionForest.NewRandomForest(hyperparameters)
	if err != nil {
		return nil, err
	}
	if err := forest.TrainWithFeatureNames(ds.Instances, ds.Labels, ds.Features); err != nil {
		return nil, fmt.Errorf("growing the forest: %w", err)
	}
	return store.NewForestDocument(gcc.name, forest)
}

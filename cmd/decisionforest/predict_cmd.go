package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeidlermicha/decisionForest"
)

type predictCmdConfig struct {
	*rootCmdConfig
	dataInput string
	name      string
	weighted  bool
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the probability of class 1 for a set of data",
		Long:  `Use a stored model to predict the probability of class 1 for every instance of a JSON data set. When the set has labels, classification statistics are printed too.`,
		Run: func(cmd *cobra.Command, args []string) {
			if config.name == "" {
				fmt.Fprintln(os.Stderr, "required name flag was not set")
				os.Exit(1)
			}
			ds, err := readDatasetFile(config.dataInput, config.logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			doc, err := loadDocument(context.Background(), config.storeURL, config.name, config.logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			learner, err := doc.Learner()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			err = predict(os.Stdout, learner, ds, config.weighted)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to a JSON file with the instances to predict (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.name), "name", "n", "", "name of the model to predict with (required)")
	cmd.PersistentFlags().BoolVarP(&(config.weighted), "weighted", "w", false, "weight forest members by their out-of-bag validation")
	return cmd
}

func predict(w io.Writer, learner decisionForest.Learner, ds *dataset, weighted bool) error {
	var predictions []float64
	var err error
	if forest, ok := learner.(*decisionForest.RandomForest); ok && weighted {
		predictions, err = forest.WeightedPredict(ds.Instances)
	} else {
		predictions, err = learner.Predict(ds.Instances)
	}
	if err != nil {
		return err
	}
	for _, p := range predictions {
		fmt.Fprintf(w, "%.4f\n", p)
	}
	if len(ds.Labels) == 0 {
		return nil
	}
	stats, err := decisionForest.NewClassificationStats(ds.Labels, predictions)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, stats)
	return nil
}

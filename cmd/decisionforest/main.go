package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootCmdConfig struct {
	logger
	configFile string
	storeURL   string
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "decisionforest",
		Short: "decisionforest grows classification trees and random forests",
		Long:  `A tool to grow classification trees and random forests from your data, inspect them, and serve their predictions`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP((*bool)(&config.logger), "verbose", "v", false, "log progress to STDERR")
	rootCmd.PersistentFlags().StringVarP(&(config.configFile), "config", "c", getEnv("DECISIONFOREST_CONFIG", ""), "path to a YAML file with tree and forest hyperparameters (defaults to $DECISIONFOREST_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&(config.storeURL), "store", "s", getEnv("DECISIONFOREST_STORE", "file://models"), "URL of the model store: file://, sqlite://, mongodb:// or minio:// (defaults to $DECISIONFOREST_STORE)")
	rootCmd.AddCommand(versionCmd(), growCmd(config), predictCmd(config), describeCmd(config), serveCmd(config))
	return rootCmd
}

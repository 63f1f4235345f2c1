package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zeidlermicha/decisionForest"
	"github.com/zeidlermicha/decisionForest/store"
)

type describeCmdConfig struct {
	*rootCmdConfig
	name string
}

func describeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &describeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print a stored model",
		Run: func(cmd *cobra.Command, args []string) {
			if config.name == "" {
				fmt.Fprintln(os.Stderr, "required name flag was not set")
				os.Exit(1)
			}
			doc, err := loadDocument(context.Background(), config.storeURL, config.name, config.logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			description, err := describe(doc)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			fmt.Print(description)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.name), "name", "n", "", "name of the model to print (required)")
	return cmd
}

func loadDocument(ctx context.Context, storeURL, name string, l logger) (*store.Document, error) {
	l.Logf("Loading %s from %s...", name, storeURL)
	s, err := store.Open(ctx, storeURL)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx, name)
}

// describe renders a tree as is and a forest member by member.
func describe(doc *store.Document) (string, error) {
	learner, err := doc.Learner()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s (%s, created %s)\n", doc.Kind, doc.Name, doc.ID, doc.CreatedAt.Format("2006-01-02 15:04:05"))
	switch m := learner.(type) {
	case *decisionForest.ClassificationTree:
		fmt.Fprintf(&sb, "%d nodes\n", m.Size())
		sb.WriteString(m.Describe())
	case *decisionForest.RandomForest:
		fmt.Fprintf(&sb, "%d trees\n", len(m.Trees))
		for i, tree := range m.Trees {
			fmt.Fprintf(&sb, "tree %d on features %v, validation %.3f\n", i, tree.AvailableFeatures, tree.Validation)
			sb.WriteString(tree.Describe())
		}
	}
	return sb.String(), nil
}

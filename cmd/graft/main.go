package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/graft"
)

var (
	flagRoot   string
	flagFormat string
	flagConfig string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "graft",
	Short:         "Code graph queries and transactional refactors",
	Long:          "Graft parses a source tree with tree-sitter into a queryable symbol graph and applies structural edits (rename, move, remove) through a transactional commit pipeline.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run func, the bare command prints help.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "working tree root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .graft.yml in root)")

	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(usagesCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(codemodCmd)
	rootCmd.AddCommand(ownersCmd)
	rootCmd.AddCommand(watchCmd)
}

// openCodebase loads config and parses the working tree.
func openCodebase(ctx context.Context) (*graft.Codebase, error) {
	root := flagRoot
	if root == "" {
		root = "."
	}

	cfg, err := loadConfig(root, flagConfig)
	if err != nil {
		return nil, err
	}
	if flagRoot == "" && cfg.Root != "" {
		root = cfg.Root
	}
	if flagFormat == "text" && cfg.Format != "" {
		flagFormat = cfg.Format
	}

	var opts []graft.Option
	if len(cfg.Languages) > 0 {
		opts = append(opts, graft.WithLanguages(cfg.Languages...))
	}
	if cfg.MaxWorkers > 0 {
		opts = append(opts, graft.WithMaxWorkers(cfg.MaxWorkers))
	}
	if cfg.Limits != (limitsConfig{}) {
		opts = append(opts, graft.WithSessionLimits(graft.SessionLimits{
			MaxTransactions: cfg.Limits.MaxTransactions,
			MaxSeconds:      cfg.Limits.MaxSeconds,
			MaxAIRequests:   cfg.Limits.MaxAIRequests,
		}))
	}

	cb, err := graft.Open(ctx, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", root, err)
	}
	return cb, nil
}

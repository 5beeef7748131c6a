// Command scanner drives a strike-pair scan over one or more trading
// dates and persists the ranked results, or serves the dashboard over
// previously persisted history.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"sym2arb/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "scanner",
		Short:         "Scan, replay, and serve sym1/sym2 arbitrage history",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to configuration file")

	root.AddCommand(newScanCmd(&configPath))
	root.AddCommand(newReplayCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	return root
}

func loadConfig(path string) (*config.RuntimeConfig, *log.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	logger := log.New(os.Stdout, "[scanner] ", log.LstdFlags)
	return cfg, logger, nil
}

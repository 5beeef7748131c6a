package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sym2arb/internal/storage"
)

func newReplayCmd(configPath *string) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Scan every trading date in [from, to] and persist the results",
		RunE: func(_ *cobra.Command, _ []string) error {
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to are required (YYYYMMDD)")
			}
			if from > to {
				return fmt.Errorf("--from %s must not be after --to %s", from, to)
			}
			if _, err := time.Parse(dateLayout, from); err != nil {
				return fmt.Errorf("--from %q is not a valid YYYYMMDD date: %w", from, err)
			}
			if _, err := time.Parse(dateLayout, to); err != nil {
				return fmt.Errorf("--to %q is not a valid YYYYMMDD date: %w", to, err)
			}
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := storage.New(storage.Driver(cfg.Storage.Driver), cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}

			for date := from; date <= to; date = nextDate(date) {
				if err := runScanForDate(cfg, store, logger, date); err != nil {
					logger.Printf("skipping %s: %v", date, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first trading date to replay, YYYYMMDD")
	cmd.Flags().StringVar(&to, "to", "", "last trading date to replay, YYYYMMDD")
	return cmd
}

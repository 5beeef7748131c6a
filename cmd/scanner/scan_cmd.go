package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sym2arb/internal/storage"
)

func newScanCmd(configPath *string) *cobra.Command {
	var date dateFlag

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan one trading date and persist the ranked results",
		RunE: func(_ *cobra.Command, _ []string) error {
			if date == "" {
				return fmt.Errorf("--date is required (YYYYMMDD)")
			}
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			store, err := storage.New(storage.Driver(cfg.Storage.Driver), cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("opening storage: %w", err)
			}
			return runScanForDate(cfg, store, logger, string(date))
		},
	}
	cmd.Flags().VarP(&date, "date", "d", "trading date to scan, YYYYMMDD")
	return cmd
}

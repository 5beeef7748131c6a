package main

import (
	"context"
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"sym2arb/internal/config"
	"sym2arb/internal/dataloader"
	"sym2arb/internal/export"
	"sym2arb/internal/models"
	"sym2arb/internal/scanner"
	"sym2arb/internal/storage"
)

// rightsFor returns the option sides a StrategyType scans.
func rightsFor(st models.StrategyType) []models.Right {
	switch st {
	case models.StrategyCallsOnly:
		return []models.Right{models.Call}
	case models.StrategyPutsOnly:
		return []models.Right{models.Put}
	default:
		return []models.Right{models.Call, models.Put}
	}
}

// runScanForDate loads one date's market data and scans every right
// the configured StrategyType requires, persisting the merged result
// set under a single run ID.
func runScanForDate(cfg *config.RuntimeConfig, store storage.Store, logger *log.Logger, date string) error {
	loader := dataloader.New(cfg.DataRoot)

	underlying, err := loader.LoadUnderlying(dataloader.DateID(date))
	if err != nil {
		return fmt.Errorf("loading underlying series for %s: %w", date, err)
	}
	trades, _, err := loader.LoadOptionTrades(dataloader.DateID(date))
	if err != nil {
		return fmt.Errorf("loading option trades for %s: %w", date, err)
	}
	quotes, _, err := loader.LoadOptionQuotes(dataloader.DateID(date))
	if err != nil {
		return fmt.Errorf("loading option quotes for %s: %w", date, err)
	}

	sym1Under, sym2Under := dataloader.GetSymbolFrames(underlying, cfg.Strategy.Sym1, cfg.Strategy.Sym2)

	var merged []models.ScanResult
	var snapshots []export.Snapshot
	for _, right := range rightsFor(cfg.Strategy.StrategyType) {
		out, err := scanner.Scan(context.Background(), trades, quotes, sym1Under, sym2Under, right, cfg.Strategy, scanner.DefaultParams())
		if err != nil {
			return fmt.Errorf("scanning %s %s: %w", date, right, err)
		}
		merged = append(merged, out.Results...)
		for _, s := range out.Snapshots {
			s.Date = date
			snapshots = append(snapshots, s)
		}
	}

	runID := uuid.New()
	if err := store.SaveScan(runID, date, cfg.Strategy, merged); err != nil {
		return fmt.Errorf("saving scan %s: %w", date, err)
	}

	var bestCredit float64
	var bestSnapshot *export.Snapshot
	for i, r := range merged {
		if r.CreditAtMax > bestCredit {
			bestCredit = r.CreditAtMax
			if i < len(snapshots) {
				bestSnapshot = &snapshots[i]
			}
		}
	}
	logger.Printf("date=%s pairs=%d best_credit=%s run_id=%s",
		date, len(merged), humanize.FormatFloat("#,###.##", bestCredit), runID)
	if bestSnapshot != nil {
		logger.Printf("best pair snapshot: sym1_strike=%.2f sym2_strike=%.2f best_worst_case.best.net_pnl=%.2f best_worst_case.worst.net_pnl=%.2f",
			bestSnapshot.Sym1Strike, bestSnapshot.Sym2Strike, bestSnapshot.BestWorstCase.Best.NetPnL, bestSnapshot.BestWorstCase.Worst.NetPnL)
	}
	return nil
}

// Package export assembles the stable, machine-readable snapshot every
// user-visible analytical view emits: entry and terminal prices, the
// computed credit, the full best/worst-case grid-search block, and,
// once a position settles, how its actual outcome compared to the
// best case. Field names follow the same envelope style as
// internal/storage.ScanRecord — flat where possible, nested for the
// grid-search block, never renamed between views.
package export

import (
	"sym2arb/internal/models"
	"sym2arb/internal/pnl"
)

// PricePair is a sym1/sym2 price observation.
type PricePair struct {
	Sym1 float64 `json:"sym1"`
	Sym2 float64 `json:"sym2"`
}

// BestWorstCase nests the grid search's two extremal scenarios.
type BestWorstCase struct {
	Best  pnl.Scenario `json:"best"`
	Worst pnl.Scenario `json:"worst"`
}

// ActualOutcome compares a position's realized P&L against the best
// case the grid search found at entry. Present only once a position
// has actually settled or been closed.
type ActualOutcome struct {
	NetPnL        float64 `json:"net_pnl"`
	PctOfBestCase float64 `json:"pct_of_best_case"`
}

// Snapshot is the stable JSON export envelope spec.md §6 requires of
// every user-visible analytical view: date, entry time label,
// strategy config, input and terminal prices, the computed credit,
// and the full best/worst-case block with coordinates and breakdowns.
type Snapshot struct {
	Date           string                `json:"date"`
	EntryTimeLabel string                `json:"entry_time_label"`
	Strategy       models.StrategyConfig `json:"strategy"`
	Sym1Strike     float64               `json:"sym1_strike"`
	Sym2Strike     float64               `json:"sym2_strike"`
	InputPrices    PricePair             `json:"input_prices"`
	TerminalPrices *PricePair            `json:"terminal_prices,omitempty"`
	Credit         float64               `json:"credit"`
	BestWorstCase  BestWorstCase         `json:"best_worst_case"`
	ActualOutcome  *ActualOutcome        `json:"actual_outcome,omitempty"`
}

// BuildSnapshot assembles a Snapshot from a constructed Position and
// its grid-search Result. sym1Strike/sym2Strike are the strikes of
// the active call or put spread (whichever the position carries);
// callers with a full (calls+puts) position pass the pair the
// snapshot is meant to describe, matching how ScannerEngine reports
// one strike pair per ScanResult.
func BuildSnapshot(date, entryTimeLabel string, cfg models.StrategyConfig, sym1Strike, sym2Strike float64, entry PricePair, pos models.Position, result pnl.Result) Snapshot {
	return Snapshot{
		Date:           date,
		EntryTimeLabel: entryTimeLabel,
		Strategy:       cfg,
		Sym1Strike:     sym1Strike,
		Sym2Strike:     sym2Strike,
		InputPrices:    entry,
		Credit:         pos.TotalCredit(),
		BestWorstCase:  BestWorstCase{Best: result.Best, Worst: result.Worst},
	}
}

// WithTerminal attaches the terminal sym1/sym2 prices observed at
// settlement or mark time, once known.
func (s Snapshot) WithTerminal(terminal PricePair) Snapshot {
	s.TerminalPrices = &terminal
	return s
}

// WithActualOutcome attaches the realized net P&L and its ratio to
// the best case the grid search found at entry. A zero best-case
// NetPnL yields PctOfBestCase of 0 rather than dividing by zero.
func (s Snapshot) WithActualOutcome(actualNetPnL float64) Snapshot {
	pct := 0.0
	if s.BestWorstCase.Best.NetPnL != 0 {
		pct = actualNetPnL / s.BestWorstCase.Best.NetPnL * 100
	}
	s.ActualOutcome = &ActualOutcome{NetPnL: actualNetPnL, PctOfBestCase: pct}
	return s
}

package models

import (
	"math"
	"time"
)

// ScanDirection mirrors the sell-side naming used by ScannerEngine
// results, distinct from the full Direction enum used by StrategyConfig.
type ScanDirection string

// Valid ScanDirection values.
const (
	ScanSellSym2 ScanDirection = "sellSym2"
	ScanSellSym1 ScanDirection = "sellSym1"
)

// ScanResult is derived from one scanner run over a single strike pair;
// it is discarded between runs and never persisted by the analytical
// core directly (internal/storage persists a ScanRecord wrapper).
type ScanResult struct {
	Sym1Strike       float64       `json:"sym1_strike"`
	Sym2Strike       float64       `json:"sym2_strike"`
	MoneynessDiffPct float64       `json:"moneyness_diff_pct"`
	MaxSpread        float64       `json:"max_spread"`
	MaxSpreadTime    time.Time     `json:"max_spread_time"`
	CreditAtMax      float64       `json:"credit_at_max"`
	BestWorstPnL     float64       `json:"best_worst_pnl"`
	BestWorstTime    time.Time     `json:"best_worst_time"`
	Direction        ScanDirection `json:"direction"`
	Sym1Volume       int64         `json:"sym1_volume"`
	Sym2Volume       int64         `json:"sym2_volume"`
	PriceSource      PriceSource   `json:"price_source"`
	LiquidityOK      bool          `json:"liquidity_ok"`
}

// RiskReward returns credit/|worst|, treating a non-negative worst case
// as +Inf.
func (r ScanResult) RiskReward() float64 {
	if r.BestWorstPnL >= 0 {
		return math.Inf(1)
	}
	return r.CreditAtMax / -r.BestWorstPnL
}

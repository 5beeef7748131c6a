// Package pnl computes settlement value, per-leg realized P&L, and the
// 150-scenario best/worst-case grid search over price and basis drift.
// Every function is a pure, deterministic function of its inputs:
// identical inputs yield bit-identical outputs.
package pnl

import (
	"math"

	"sym2arb/internal/models"
)

// GridPricePoints and GridPriceRangePct mirror internal/config's
// constants; BestWorstCase takes its full Params rather than importing
// config, keeping this package a pure function of its arguments.
const (
	GridPricePoints   = 50
	GridPriceRangePct = 0.05
)

// DefaultBasisDriftLevels are the three fractional basis-drift
// scenarios swept alongside the 50 price points (150 total).
var DefaultBasisDriftLevels = []float64{-0.001, 0.0, 0.001}

// Settlement computes the intrinsic value of an option at expiration:
// max(0, u-k) for a call, max(0, k-u) for a put.
func Settlement(underlyingPrice, strike float64, right models.Right) float64 {
	if right == models.Call {
		return math.Max(0, underlyingPrice-strike)
	}
	return math.Max(0, strike-underlyingPrice)
}

// PerLegPnL computes a single leg's cash P&L given its terminal price
// (the settlement intrinsic, for options held to expiration): for a
// BUY, (terminal-entry)*qty*100; for a SELL, (entry-terminal)*qty*100.
func PerLegPnL(leg models.Leg, terminalPrice float64) float64 {
	if leg.Action == models.Buy {
		return (terminalPrice - leg.EntryPrice) * float64(leg.Quantity) * 100
	}
	return (leg.EntryPrice - terminalPrice) * float64(leg.Quantity) * 100
}

// Scenario is one point in the best/worst-case grid. Field names are
// the stable JSON names of the analytical snapshot envelope
// (internal/export).
type Scenario struct {
	Sym1Price    float64      `json:"sym1_price"`
	Sym2Price    float64      `json:"sym2_price"`
	BasisDrift   float64      `json:"basis_drift_pct"`
	NetPnL       float64      `json:"net_pnl"`
	LegBreakdown []LegOutcome `json:"leg_breakdown"`
}

// LegOutcome is one leg's settlement and P&L within a Scenario.
type LegOutcome struct {
	Leg        models.Leg `json:"leg"`
	Settlement float64    `json:"settlement"`
	PnL        float64    `json:"pnl"`
}

// Result is the best/worst-case grid search's output: both extremal
// scenarios, each with its (s1, s2, drift) coordinates and a full
// leg-level breakdown.
type Result struct {
	Best  Scenario
	Worst Scenario
}

// Params bundles the grid shape; DefaultParams gives the standard
// defaults (50 points, ±5%, {-0.001, 0, +0.001} drift).
type Params struct {
	PricePoints      int
	PriceRangePct    float64
	BasisDriftLevels []float64
}

// DefaultParams returns the standard 50x3=150 scenario grid.
func DefaultParams() Params {
	return Params{PricePoints: GridPricePoints, PriceRangePct: GridPriceRangePct, BasisDriftLevels: DefaultBasisDriftLevels}
}

// BestWorstCase runs the grid search: it enumerates PricePoints trial
// sym1 prices spanning
// entrySym1*(1±PriceRangePct), and for each trial price and each basis
// drift level computes sym2 = s1 * (entrySym2/entrySym1) * (1+drift),
// settles every active leg, sums the per-leg P&L (each already measured
// from its entry price, so the entry credit is counted exactly once),
// and returns the argmax/argmin scenario over every (s1, drift) pair.
func BestWorstCase(pos models.Position, sym1Symbol, sym2Symbol string, entrySym1, entrySym2 float64, p Params) Result {
	grid := priceGrid(entrySym1, p.PricePoints, p.PriceRangePct)
	baseRatio := entrySym2 / entrySym1

	var best, worst Scenario
	haveAny := false

	for _, s1 := range grid {
		for _, drift := range p.BasisDriftLevels {
			s2 := s1 * baseRatio * (1 + drift)
			scenario := evaluateScenario(pos, sym2Symbol, s1, s2, drift)
			if !haveAny || scenario.NetPnL > best.NetPnL {
				best = scenario
			}
			if !haveAny || scenario.NetPnL < worst.NetPnL {
				worst = scenario
			}
			haveAny = true
		}
	}
	return Result{Best: best, Worst: worst}
}

func evaluateScenario(pos models.Position, sym2Symbol string, s1, s2, drift float64) Scenario {
	sc := Scenario{Sym1Price: s1, Sym2Price: s2, BasisDrift: drift}
	for _, leg := range pos.Legs {
		underlying := s1
		if leg.Symbol == sym2Symbol {
			underlying = s2
		}
		settle := Settlement(underlying, leg.Strike, leg.Right)
		legPnL := PerLegPnL(leg, settle)
		sc.NetPnL += legPnL
		sc.LegBreakdown = append(sc.LegBreakdown, LegOutcome{Leg: leg, Settlement: settle, PnL: legPnL})
	}
	return sc
}

// priceGrid returns PricePoints values evenly spaced across
// [entry*(1-rangePct), entry*(1+rangePct)] inclusive.
func priceGrid(entry float64, points int, rangePct float64) []float64 {
	lo := entry * (1 - rangePct)
	hi := entry * (1 + rangePct)
	out := make([]float64, points)
	if points == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(points-1)
	for i := 0; i < points; i++ {
		out[i] = lo + step*float64(i)
	}
	return out
}

package pnl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
)

func callSpread(sellSym2Price, buySym1Price float64) models.Position {
	legs := []models.Leg{
		{Symbol: "SPX", Strike: 6000, Right: models.Call, Action: models.Sell, Quantity: 1, EntryPrice: sellSym2Price},
		{Symbol: "SPY", Strike: 600, Right: models.Call, Action: models.Buy, Quantity: 10, EntryPrice: buySym1Price},
	}
	credit := (sellSym2Price*1 - buySym1Price*10) * 100
	return models.Position{StrategyType: models.StrategyCallsOnly, Legs: legs, CallCredit: credit}
}

func TestSettlement_CallAndPut(t *testing.T) {
	require.InDelta(t, 6, Settlement(606, 600, models.Call), 1e-9)
	require.InDelta(t, 0, Settlement(594, 600, models.Call), 1e-9)
	require.InDelta(t, 6, Settlement(594, 600, models.Put), 1e-9)
}

func TestSettlement_PutCallParity(t *testing.T) {
	u, k := 606.0, 600.0
	require.InDelta(t, u-k, Settlement(u, k, models.Call)-Settlement(u, k, models.Put), 1e-9)
}

// Scenario 1: flat-market call-only hedge, zero net P&L.
func TestScenario1_FlatMarket(t *testing.T) {
	pos := callSpread(24.00, 2.40)
	require.InDelta(t, 0, pos.TotalCredit(), 1e-9)

	sellPnL := PerLegPnL(pos.Legs[0], Settlement(600, 600, models.Call))
	buyPnL := PerLegPnL(pos.Legs[1], Settlement(600, 600, models.Call))
	net := pos.TotalCredit() + sellPnL + buyPnL
	require.InDelta(t, 0, net, 1e-9)
}

// Scenario 2: +1% lockstep move, net P&L still zero.
func TestScenario2_LockstepOnePercent(t *testing.T) {
	pos := callSpread(24.00, 2.40)
	sellSettle := Settlement(6060, 6000, models.Call) // 60
	buySettle := Settlement(606, 600, models.Call)    // 6
	sellPnL := PerLegPnL(pos.Legs[0], sellSettle)
	buyPnL := PerLegPnL(pos.Legs[1], buySettle)
	require.InDelta(t, -3600, sellPnL, 1e-9)
	require.InDelta(t, 3600, buyPnL, 1e-9)
	require.InDelta(t, 0, pos.TotalCredit()+sellPnL+buyPnL, 1e-9)
}

// Scenario 3: positive credit entry, lockstep net P&L equals credit.
func TestScenario3_PositiveCreditLockstep(t *testing.T) {
	pos := callSpread(25.00, 2.40)
	require.InDelta(t, 100, pos.TotalCredit(), 1e-9)

	sellPnL := PerLegPnL(pos.Legs[0], Settlement(6060, 6000, models.Call))
	buyPnL := PerLegPnL(pos.Legs[1], Settlement(606, 600, models.Call))
	// Per-leg P&L is measured from each leg's entry price, so the legs'
	// sum already carries the entry credit.
	net := sellPnL + buyPnL
	require.InDelta(t, 100, net, 1e-9)
}

// Scenario 4: grid search expectation around a 100-credit entry.
func TestScenario4_GridSearchBounds(t *testing.T) {
	pos := callSpread(25.00, 2.40)
	result := BestWorstCase(pos, "SPY", "SPX", 600, 6000, DefaultParams())

	require.GreaterOrEqual(t, result.Best.NetPnL, 100.0)
	require.LessOrEqual(t, result.Worst.NetPnL, 100.0)
	// worst occurs where basis drift hurts the short sym2 call: sym2 rising
	// faster than sym1 (positive drift) when sym1 is at/above the upper
	// end of its range — since sym1 is up 5% driving sym2 further via
	// positive drift, the worst case should show a positive drift.
	require.Equal(t, 0.001, result.Worst.BasisDrift)
}

func TestGridCoverage_150Scenarios(t *testing.T) {
	grid := priceGrid(600, GridPricePoints, GridPriceRangePct)
	require.Len(t, grid, 50)
	count := 0
	for range grid {
		count += len(DefaultBasisDriftLevels)
	}
	require.Equal(t, 150, count)
}

func TestBestWorstCase_Determinism(t *testing.T) {
	pos := callSpread(25.00, 2.40)
	r1 := BestWorstCase(pos, "SPY", "SPX", 600, 6000, DefaultParams())
	r2 := BestWorstCase(pos, "SPY", "SPX", 600, 6000, DefaultParams())
	require.Equal(t, r1.Best.NetPnL, r2.Best.NetPnL)
	require.Equal(t, r1.Worst.NetPnL, r2.Worst.NetPnL)
	require.Equal(t, r1.Best.Sym1Price, r2.Best.Sym1Price)
	require.Equal(t, r1.Worst.Sym1Price, r2.Worst.Sym1Price)
}

func TestBestWorstCase_InactiveLegsContributeZero(t *testing.T) {
	// calls_only: no put legs present, so the grid never touches puts.
	pos := callSpread(25.00, 2.40)
	r := BestWorstCase(pos, "SPY", "SPX", 600, 6000, DefaultParams())
	for _, lo := range r.Best.LegBreakdown {
		require.NotEqual(t, models.Put, lo.Leg.Right)
	}
}

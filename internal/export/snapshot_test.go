package export

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
	"sym2arb/internal/pnl"
)

func testStrategy() models.StrategyConfig {
	return models.StrategyConfig{
		Sym1: "SPY", Sym2: "SPX", QtyRatio: 10, StrikeStepSym2: 5,
		StrategyType:  models.StrategyCallsOnly,
		CallDirection: models.DirSellSym2BuySym1,
		PutDirection:  models.DirSellSym1BuySym2,
	}
}

func testPosition() models.Position {
	return models.Position{
		StrategyType: models.StrategyCallsOnly,
		Legs: []models.Leg{
			{Symbol: "SPX", Strike: 6000, Right: models.Call, Action: models.Sell, Quantity: 1, EntryPrice: 24},
			{Symbol: "SPY", Strike: 600, Right: models.Call, Action: models.Buy, Quantity: 10, EntryPrice: 2.4},
		},
		CallCredit: 0,
	}
}

func testResult() pnl.Result {
	return pnl.Result{
		Best:  pnl.Scenario{Sym1Price: 606, Sym2Price: 6060, BasisDrift: 0, NetPnL: 0},
		Worst: pnl.Scenario{Sym1Price: 594, Sym2Price: 5940.6, BasisDrift: 0.001, NetPnL: -12},
	}
}

func TestBuildSnapshot_CarriesCreditAndGrid(t *testing.T) {
	snap := BuildSnapshot("20260101", "09:31", testStrategy(), 600, 6000,
		PricePair{Sym1: 600, Sym2: 6000}, testPosition(), testResult())

	require.Equal(t, "20260101", snap.Date)
	require.Equal(t, 0.0, snap.Credit)
	require.Equal(t, 0.0, snap.BestWorstCase.Best.NetPnL)
	require.Equal(t, -12.0, snap.BestWorstCase.Worst.NetPnL)
	require.Nil(t, snap.TerminalPrices)
	require.Nil(t, snap.ActualOutcome)
}

func TestSnapshot_WithTerminalAndActualOutcome(t *testing.T) {
	base := BuildSnapshot("20260101", "09:31", testStrategy(), 600, 6000,
		PricePair{Sym1: 600, Sym2: 6000}, testPosition(), pnl.Result{
			Best:  pnl.Scenario{NetPnL: 100},
			Worst: pnl.Scenario{NetPnL: -50},
		})

	full := base.WithTerminal(PricePair{Sym1: 606, Sym2: 6060}).WithActualOutcome(75)
	require.NotNil(t, full.TerminalPrices)
	require.Equal(t, 606.0, full.TerminalPrices.Sym1)
	require.NotNil(t, full.ActualOutcome)
	require.Equal(t, 75.0, full.ActualOutcome.PctOfBestCase)
}

func TestSnapshot_ActualOutcomeHandlesZeroBestCase(t *testing.T) {
	base := BuildSnapshot("20260101", "09:31", testStrategy(), 600, 6000,
		PricePair{Sym1: 600, Sym2: 6000}, testPosition(), pnl.Result{})
	full := base.WithActualOutcome(10)
	require.Equal(t, 0.0, full.ActualOutcome.PctOfBestCase)
}

func TestSnapshot_JSONFieldNamesAreStable(t *testing.T) {
	snap := BuildSnapshot("20260101", "09:31", testStrategy(), 600, 6000,
		PricePair{Sym1: 600, Sym2: 6000}, testPosition(), testResult())

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"date", "entry_time_label", "sym1_strike", "sym2_strike", "input_prices", "credit", "best_worst_case"} {
		require.Contains(t, raw, key)
	}
	bwc, ok := raw["best_worst_case"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, bwc, "best")
	require.Contains(t, bwc, "worst")
}

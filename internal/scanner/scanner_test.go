package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
)

func mustCfg(t *testing.T) models.StrategyConfig {
	t.Helper()
	cfg, err := models.NewStrategyConfig("SPY", "SPX", true, models.StrategyCallsOnly, models.DirSellSym2BuySym1, models.DirSellSym1BuySym2)
	require.NoError(t, err)
	return cfg
}

func ts(minute int) time.Time {
	return time.Date(2026, 3, 16, 9, 30+minute, 0, 0, time.UTC)
}

// buildFixture produces a flat-market, 10-minute SPY/SPX calls_only
// fixture with exactly one admissible strike pair (600/6000) and
// underlying open prices 600/6000 (ratio 10). A second, clearly
// inadmissible strike (SPX 6200) is present only so a scan over it
// would have to be excluded by the moneyness tolerance filter.
func buildFixture() ([]models.OptionBar, []models.OptionQuoteBar, []models.UnderlyingBar, []models.UnderlyingBar) {
	var trades []models.OptionBar
	var quotes []models.OptionQuoteBar
	var sym1U, sym2U []models.UnderlyingBar

	for i := 0; i < 10; i++ {
		t := ts(i)
		sym1U = append(sym1U, models.UnderlyingBar{Symbol: "SPY", Timestamp: t, Close: 600})
		sym2U = append(sym2U, models.UnderlyingBar{Symbol: "SPX", Timestamp: t, Close: 6000})

		quotes = append(quotes,
			models.OptionQuoteBar{Symbol: "SPY", Strike: 600, Right: models.Call, Timestamp: t, Bid: 2.35, Ask: 2.45},
			models.OptionQuoteBar{Symbol: "SPX", Strike: 6000, Right: models.Call, Timestamp: t, Bid: 23.80, Ask: 24.20},
			models.OptionQuoteBar{Symbol: "SPX", Strike: 6200, Right: models.Call, Timestamp: t, Bid: 19.00, Ask: 19.40},
		)
	}
	return trades, quotes, sym1U, sym2U
}

func TestScan_FlatMarketProducesOneAdmissiblePair(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	out, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)
	require.False(t, out.Partial)
	require.Len(t, out.Results, 1)
	require.Equal(t, 600.0, out.Results[0].Sym1Strike)
	require.Equal(t, 6000.0, out.Results[0].Sym2Strike)
}

func TestScan_ExcludesPairOutsideTolerance(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	out, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)
	for _, r := range out.Results {
		require.NotEqual(t, 6200.0, r.Sym2Strike)
	}
}

func TestScan_OrderingsAreConsistentViews(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	out, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)
	require.Len(t, out.BySafety, len(out.Results))
	require.Len(t, out.ByProfit, len(out.Results))
	require.Len(t, out.ByRiskReward, len(out.Results))
}

func TestScan_DeterministicAcrossRuns(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	out1, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)
	out2, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)

	require.Equal(t, len(out1.Results), len(out2.Results))
	for i := range out1.Results {
		require.Equal(t, out1.Results[i].BestWorstPnL, out2.Results[i].BestWorstPnL)
		require.Equal(t, out1.Results[i].CreditAtMax, out2.Results[i].CreditAtMax)
	}
}

func TestScan_CancelledContextReturnsPartial(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Scan(ctx, trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)
	require.True(t, out.Partial)
}

func TestScan_RequiresUnderlyingSeries(t *testing.T) {
	cfg := mustCfg(t)
	_, quotes, _, sym2U := buildFixture()

	_, err := Scan(context.Background(), nil, quotes, nil, sym2U, models.Call, cfg, DefaultParams())
	require.Error(t, err)
}

func TestCandidatePairs_RespectsTolerance(t *testing.T) {
	pairs := candidatePairs([]float64{600, 601}, []float64{6000, 6200}, 10, 0.005)
	require.Contains(t, pairs, CandidatePair{Sym1Strike: 600, Sym2Strike: 6000})
	// 601*10=6010; 6000 is within 0.5% of 6010 (0.17%) so it's admissible too.
	require.Contains(t, pairs, CandidatePair{Sym1Strike: 601, Sym2Strike: 6000})
	require.NotContains(t, pairs, CandidatePair{Sym1Strike: 600, Sym2Strike: 6200})
	require.NotContains(t, pairs, CandidatePair{Sym1Strike: 601, Sym2Strike: 6200})
}

func TestCustomRank_AppliesExpressionDescending(t *testing.T) {
	cfg := mustCfg(t)
	trades, quotes, sym1U, sym2U := buildFixture()

	out, err := Scan(context.Background(), trades, quotes, sym1U, sym2U, models.Call, cfg, DefaultParams())
	require.NoError(t, err)

	ranked, err := CustomRank(out.Results, "credit - 0.5*abs(worst)")
	require.NoError(t, err)
	require.Len(t, ranked, len(out.Results))
}

func TestCustomRank_RejectsInvalidExpression(t *testing.T) {
	_, err := CustomRank(nil, "this is not )( valid")
	require.Error(t, err)
}

// Package scanner drives internal/pricing across a Cartesian product
// of candidate strike pairs and times, then invokes internal/pnl to
// score each pair, producing three consistent total orderings over one
// frozen result set.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"sym2arb/internal/export"
	"sym2arb/internal/metrics"
	"sym2arb/internal/models"
	"sym2arb/internal/normalization"
	"sym2arb/internal/pnl"
	"sym2arb/internal/position"
	"sym2arb/internal/pricing"
)

// Params bundles the thresholds a scan evaluates candidate pairs
// against; mirrors internal/config's SCANNER_PAIR_TOLERANCE and
// DEFAULT_MIN_VOLUME constants without importing config directly.
type Params struct {
	PairTolerance float64
	MinVolume     int64
	Concurrency   int // 0 means unlimited (errgroup default)
}

// DefaultParams returns the default thresholds.
func DefaultParams() Params {
	return Params{PairTolerance: 0.005, MinVolume: 10}
}

// Output is the frozen result of one scan: the raw result set plus the
// three mandated total orderings, all views over the same slice.
type Output struct {
	Results      []models.ScanResult
	BySafety     []models.ScanResult
	ByProfit     []models.ScanResult
	ByRiskReward []models.ScanResult
	Partial      bool

	// Snapshots holds the full JSON export envelope (internal/export)
	// for each entry in Results, same index alignment. It carries the
	// grid-search coordinates and leg breakdowns Results itself only
	// summarizes.
	Snapshots []export.Snapshot
}

// Scan evaluates every admissible strike pair. trades and quotes may
// be nil (absent sources degrade per internal/pricing). right selects
// calls_only or puts_only scanning; cfg.StrategyType and the matching
// direction field must already agree with right. The scan is
// cancellable between pairs via ctx; a cancelled scan returns
// Output{Partial: true} and no error other than the cancellation
// itself being recorded.
func Scan(
	ctx context.Context,
	trades []models.OptionBar,
	quotes []models.OptionQuoteBar,
	sym1Under, sym2Under []models.UnderlyingBar,
	right models.Right,
	cfg models.StrategyConfig,
	p Params,
) (Output, error) {
	start := time.Now()
	defer func() { metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	if len(sym1Under) == 0 || len(sym2Under) == 0 {
		return Output{}, fmt.Errorf("%w: underlying series required for scan", models.ErrPreconditionNotMet)
	}

	ratio, err := openRatio(sym1Under, sym2Under)
	if err != nil {
		return Output{}, err
	}

	sym1Strikes := distinctStrikes(trades, quotes, cfg.Sym1, right)
	sym2Strikes := distinctStrikes(trades, quotes, cfg.Sym2, right)
	pairs := candidatePairs(sym1Strikes, sym2Strikes, ratio, p.PairTolerance)

	results := make([]*models.ScanResult, len(pairs))
	snapshots := make([]*export.Snapshot, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	if p.Concurrency > 0 {
		g.SetLimit(p.Concurrency)
	}

	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, snap, ok, err := evaluatePair(trades, quotes, sym1Under, sym2Under, right, cfg, ratio, pair, p)
			if err != nil {
				// A systemic error aborts the whole scan.
				return err
			}
			if ok {
				results[i] = res
				snapshots[i] = snap
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			return Output{Partial: true}, nil
		}
		return Output{}, err
	}

	final := make([]models.ScanResult, 0, len(results))
	finalSnapshots := make([]export.Snapshot, 0, len(results))
	for i, r := range results {
		if r != nil {
			final = append(final, *r)
			finalSnapshots = append(finalSnapshots, *snapshots[i])
		}
	}

	out := buildOutput(final)
	out.Snapshots = finalSnapshots
	return out, nil
}

func buildOutput(results []models.ScanResult) Output {
	bySafety := append([]models.ScanResult(nil), results...)
	sort.SliceStable(bySafety, func(i, j int) bool {
		return rankLess(bySafety[i].BestWorstPnL, bySafety[j].BestWorstPnL, bySafety[i], bySafety[j])
	})

	byProfit := append([]models.ScanResult(nil), results...)
	sort.SliceStable(byProfit, func(i, j int) bool {
		return rankLess(byProfit[i].CreditAtMax, byProfit[j].CreditAtMax, byProfit[i], byProfit[j])
	})

	byRiskReward := append([]models.ScanResult(nil), results...)
	sort.SliceStable(byRiskReward, func(i, j int) bool {
		return rankLess(byRiskReward[i].RiskReward(), byRiskReward[j].RiskReward(), byRiskReward[i], byRiskReward[j])
	})

	return Output{Results: results, BySafety: bySafety, ByProfit: byProfit, ByRiskReward: byRiskReward}
}

// rankLess orders descending by key, tie-breaking by sym1Strike asc
// then sym2Strike asc.
func rankLess(keyI, keyJ float64, a, b models.ScanResult) bool {
	if keyI != keyJ {
		return keyI > keyJ
	}
	if a.Sym1Strike != b.Sym1Strike {
		return a.Sym1Strike < b.Sym1Strike
	}
	return a.Sym2Strike < b.Sym2Strike
}

// CandidatePair is one admissible (sym1Strike, sym2Strike) pair.
type CandidatePair struct {
	Sym1Strike, Sym2Strike float64
}

// openRatio computes sym2_close_at_open / sym1_close_at_open from the
// earliest bar in each series.
func openRatio(sym1, sym2 []models.UnderlyingBar) (float64, error) {
	s1 := earliest(sym1)
	s2 := earliest(sym2)
	if s1.Close == 0 {
		return 0, fmt.Errorf("%w: sym1 open price is zero", models.ErrInconsistentData)
	}
	return s2.Close / s1.Close, nil
}

func earliest(bars []models.UnderlyingBar) models.UnderlyingBar {
	best := bars[0]
	for _, b := range bars[1:] {
		if b.Timestamp.Before(best.Timestamp) {
			best = b
		}
	}
	return best
}

// distinctStrikes collects every strike observed for symbol+right
// across trades and quotes.
func distinctStrikes(trades []models.OptionBar, quotes []models.OptionQuoteBar, symbol string, right models.Right) []float64 {
	seen := make(map[float64]bool)
	for _, t := range trades {
		if t.Symbol == symbol && t.Right == right {
			seen[t.Strike] = true
		}
	}
	for _, q := range quotes {
		if q.Symbol == symbol && q.Right == right {
			seen[q.Strike] = true
		}
	}
	out := make([]float64, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// candidatePairs emits every (sym1Strike, sym2Strike) pair admissible
// under the moneyness tolerance: |sym2Strike - sym1Strike*r| /
// (sym1Strike*r) <= tolerance.
func candidatePairs(sym1Strikes, sym2Strikes []float64, ratio, tolerance float64) []CandidatePair {
	var out []CandidatePair
	for _, k1 := range sym1Strikes {
		target := k1 * ratio
		if target == 0 {
			continue
		}
		for _, k2 := range sym2Strikes {
			if math.Abs(k2-target)/target <= tolerance {
				out = append(out, CandidatePair{Sym1Strike: k1, Sym2Strike: k2})
			}
		}
	}
	return out
}

func filterOptionBars(bars []models.OptionBar, symbol string, strike float64, right models.Right) []models.OptionBar {
	var out []models.OptionBar
	for _, b := range bars {
		if b.Symbol == symbol && b.Strike == strike && b.Right == right {
			out = append(out, b)
		}
	}
	return out
}

func filterQuoteBars(bars []models.OptionQuoteBar, symbol string, strike float64, right models.Right) []models.OptionQuoteBar {
	var out []models.OptionQuoteBar
	for _, b := range bars {
		if b.Symbol == symbol && b.Strike == strike && b.Right == right {
			out = append(out, b)
		}
	}
	return out
}

// evaluatePair builds the spread series for one candidate pair, picks
// the quick-heuristic entry time, and invokes the real grid search.
// ok=false means the pair was skipped, not an error: it had fewer than
// 5 joined samples, no underlying bar at or before the entry time, or
// position.Build refused its legs at that time (e.g. a stale price).
func evaluatePair(
	trades []models.OptionBar,
	quotes []models.OptionQuoteBar,
	sym1Under, sym2Under []models.UnderlyingBar,
	right models.Right,
	cfg models.StrategyConfig,
	ratio float64,
	pair CandidatePair,
	p Params,
) (*models.ScanResult, *export.Snapshot, bool, error) {
	metrics.PairsEvaluated.Inc()

	sym1Trades := filterOptionBars(trades, cfg.Sym1, pair.Sym1Strike, right)
	sym2Trades := filterOptionBars(trades, cfg.Sym2, pair.Sym2Strike, right)
	sym1Quotes := filterQuoteBars(quotes, cfg.Sym1, pair.Sym1Strike, right)
	sym2Quotes := filterQuoteBars(quotes, cfg.Sym2, pair.Sym2Strike, right)

	times := unionTimestamps(sym1Trades, sym1Quotes, sym2Trades, sym2Quotes)

	pricingParams := pricing.DefaultParams()
	pricingParams.MinVolume = p.MinVolume

	sym1Series := make([]normalization.TimedPrice, 0, len(times))
	sym2Series := make([]normalization.TimedPrice, 0, len(times))
	quoteAt := make(map[int64]struct{ sym1, sym2 models.PriceQuote })

	for _, t := range times {
		q1, ok1 := pricing.PriceAt(sym1Trades, sym1Quotes, t, pricingParams)
		q2, ok2 := pricing.PriceAt(sym2Trades, sym2Quotes, t, pricingParams)
		if !ok1 || !ok2 {
			continue
		}
		if q1.IsStale || q2.IsStale {
			metrics.StalePriceRejections.Inc()
		}
		sym1Series = append(sym1Series, normalization.TimedPrice{Timestamp: t, Price: q1.Price})
		sym2Series = append(sym2Series, normalization.TimedPrice{Timestamp: t, Price: q2.Price})
		quoteAt[t.UnixNano()] = struct{ sym1, sym2 models.PriceQuote }{q1, q2}
	}

	spread := normalization.SpreadSeries(sym1Series, sym2Series, ratio)
	if len(spread) < 5 {
		return nil, nil, false, nil
	}

	moneynessDiff := math.Abs((pair.Sym1Strike-pair.Sym2Strike/ratio)/pair.Sym1Strike) * 100

	tStar, maxSpread, maxSpreadTime := pickEntryTime(spread, pair, cfg, ratio, moneynessDiff)

	q := quoteAt[tStar.UnixNano()]

	entrySym1, entrySym2, err := underlyingPricesAt(sym1Under, sym2Under, tStar)
	if err != nil {
		return nil, nil, false, nil //nolint:nilerr // per-pair failure is recorded as a skip, not a systemic abort
	}

	pos, direction, err := buildDirectedPosition(cfg, right, pair, q.sym1, q.sym2, entrySym1, entrySym2)
	if err != nil {
		return nil, nil, false, nil //nolint:nilerr
	}

	result := pnl.BestWorstCase(pos, cfg.Sym1, cfg.Sym2, entrySym1, entrySym2, pnl.DefaultParams())

	liquidityOK := q.sym1.Volume >= p.MinVolume && q.sym2.Volume >= p.MinVolume

	snap := export.BuildSnapshot("", tStar.Format("15:04"), cfg, pair.Sym1Strike, pair.Sym2Strike,
		export.PricePair{Sym1: entrySym1, Sym2: entrySym2}, pos, result)

	return &models.ScanResult{
		Sym1Strike:       pair.Sym1Strike,
		Sym2Strike:       pair.Sym2Strike,
		MoneynessDiffPct: moneynessDiff,
		MaxSpread:        maxSpread,
		MaxSpreadTime:    maxSpreadTime,
		CreditAtMax:      pos.TotalCredit(),
		BestWorstPnL:     result.Worst.NetPnL,
		BestWorstTime:    tStar,
		Direction:        direction,
		Sym1Volume:       q.sym1.Volume,
		Sym2Volume:       q.sym2.Volume,
		PriceSource:      q.sym1.Source,
		LiquidityOK:      liquidityOK,
	}, &snap, true, nil
}

// pickEntryTime selects t* = argmax(worst_case_quick), a cheap scalar
// heuristic used only to pick a candidate entry time; it is never
// reported as the final worst case. It also returns max|spread| and
// its time.
func pickEntryTime(spread []normalization.SpreadPoint, pair CandidatePair, cfg models.StrategyConfig, ratio, moneynessDiff float64) (tStar time.Time, maxSpread float64, maxSpreadTime time.Time) {
	var bestQuick = math.Inf(-1)
	for _, s := range spread {
		quick := math.Abs(s.Spread)*float64(cfg.QtyRatio)*100 -
			ratio*0.001*pair.Sym1Strike*float64(cfg.QtyRatio)*100 -
			moneynessDiff*pair.Sym1Strike*float64(cfg.QtyRatio)*100
		if quick > bestQuick {
			bestQuick = quick
			tStar = s.Timestamp
		}
		if math.Abs(s.Spread) > maxSpread {
			maxSpread = math.Abs(s.Spread)
			maxSpreadTime = s.Timestamp
		}
	}
	return tStar, maxSpread, maxSpreadTime
}

// buildDirectedPosition constructs the correctly directed calls_only or
// puts_only Position for one candidate pair at the chosen entry time.
func buildDirectedPosition(cfg models.StrategyConfig, right models.Right, pair CandidatePair, q1, q2 models.PriceQuote, entrySym1, entrySym2 float64) (models.Position, models.ScanDirection, error) {
	var dir models.Direction
	var strikes position.Strikes
	var prices position.Prices
	var scanDir models.ScanDirection

	st := models.StrategyCallsOnly
	if right == models.Put {
		st = models.StrategyPutsOnly
		dir = cfg.PutDirection
	} else {
		dir = cfg.CallDirection
	}

	if dir == models.DirSellSym2BuySym1 {
		scanDir = models.ScanSellSym2
	} else {
		scanDir = models.ScanSellSym1
	}

	scanCfg := cfg
	scanCfg.StrategyType = st
	scanCfg.CallDirection = dir
	scanCfg.PutDirection = dir

	if right == models.Call {
		strikes = position.Strikes{Sym1Call: pair.Sym1Strike, Sym2Call: pair.Sym2Strike}
		prices = position.Prices{position.LegSym1Call: &q1, position.LegSym2Call: &q2}
	} else {
		strikes = position.Strikes{Sym1Put: pair.Sym1Strike, Sym2Put: pair.Sym2Strike}
		prices = position.Prices{position.LegSym1Put: &q1, position.LegSym2Put: &q2}
	}

	pos, err := position.Build(scanCfg, strikes, prices, position.EntryUnderlying{Sym1: entrySym1, Sym2: entrySym2})
	if err != nil {
		return models.Position{}, "", err
	}
	return pos, scanDir, nil
}

func underlyingPricesAt(sym1Under, sym2Under []models.UnderlyingBar, t time.Time) (float64, float64, error) {
	s1, ok1 := nearestUnderlyingAtOrBefore(sym1Under, t)
	s2, ok2 := nearestUnderlyingAtOrBefore(sym2Under, t)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("%w: no underlying bar at or before %s", models.ErrNotFound, t)
	}
	return s1.Close, s2.Close, nil
}

func nearestUnderlyingAtOrBefore(bars []models.UnderlyingBar, t time.Time) (models.UnderlyingBar, bool) {
	idx := sort.Search(len(bars), func(i int) bool { return bars[i].Timestamp.After(t) })
	if idx == 0 {
		return models.UnderlyingBar{}, false
	}
	return bars[idx-1], true
}

func unionTimestamps(sym1T []models.OptionBar, sym1Q []models.OptionQuoteBar, sym2T []models.OptionBar, sym2Q []models.OptionQuoteBar) []time.Time {
	seen := make(map[int64]time.Time)
	add := func(t time.Time) { seen[t.UnixNano()] = t }
	for _, b := range sym1T {
		add(b.Timestamp)
	}
	for _, b := range sym1Q {
		add(b.Timestamp)
	}
	for _, b := range sym2T {
		add(b.Timestamp)
	}
	for _, b := range sym2Q {
		add(b.Timestamp)
	}
	out := make([]time.Time, 0, len(seen))
	for _, t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

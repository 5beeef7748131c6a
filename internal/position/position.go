// Package position builds the four-legged credit Position from a
// StrategyConfig, a set of priced legs, and entry underlying prices.
// Build is the single gate that prevents a tradable position from
// resting on a stale or absent price.
package position

import (
	"fmt"
	"math"

	"sym2arb/internal/models"
)

// LegName identifies which of the up-to-four priced legs a Prices map
// supplies. Not every name is required for every StrategyType.
type LegName string

// Valid LegName values.
const (
	LegSym1Call LegName = "sym1_call"
	LegSym2Call LegName = "sym2_call"
	LegSym1Put  LegName = "sym1_put"
	LegSym2Put  LegName = "sym2_put"
)

// Prices maps each required leg to its PriceQuote. A missing key is
// treated the same as an absent PriceQuote: Build refuses to proceed.
type Prices map[LegName]*models.PriceQuote

// EntryUnderlying carries the sym1/sym2 underlying prices observed at
// entry, used only for the moneyness check.
type EntryUnderlying struct {
	Sym1 float64
	Sym2 float64
}

// Strikes carries the strike chosen for each active leg.
type Strikes struct {
	Sym1Call, Sym2Call float64
	Sym1Put, Sym2Put   float64
}

// Build constructs a Position. It refuses (ErrPreconditionNotMet) if
// any required leg's PriceQuote is absent or stale, naming the
// missing/stale leg(s) in the error.
func Build(cfg models.StrategyConfig, strikes Strikes, prices Prices, entry EntryUnderlying) (models.Position, error) {
	pos := models.Position{StrategyType: cfg.StrategyType}

	switch cfg.StrategyType {
	case models.StrategyCallsOnly:
		legs, credit, err := buildSpread(cfg, models.Call, cfg.CallDirection, strikes.Sym1Call, strikes.Sym2Call, prices)
		if err != nil {
			return models.Position{}, err
		}
		pos.Legs = legs
		pos.CallCredit = credit
	case models.StrategyPutsOnly:
		legs, credit, err := buildSpread(cfg, models.Put, cfg.PutDirection, strikes.Sym1Put, strikes.Sym2Put, prices)
		if err != nil {
			return models.Position{}, err
		}
		pos.Legs = legs
		pos.PutCredit = credit
	case models.StrategyFull:
		callLegs, callCredit, err := buildSpread(cfg, models.Call, cfg.CallDirection, strikes.Sym1Call, strikes.Sym2Call, prices)
		if err != nil {
			return models.Position{}, err
		}
		putLegs, putCredit, err := buildSpread(cfg, models.Put, cfg.PutDirection, strikes.Sym1Put, strikes.Sym2Put, prices)
		if err != nil {
			return models.Position{}, err
		}
		pos.Legs = append(callLegs, putLegs...)
		pos.CallCredit = callCredit
		pos.PutCredit = putCredit
	default:
		return models.Position{}, fmt.Errorf("%w: unknown strategy_type %q", models.ErrInvalidArgument, cfg.StrategyType)
	}

	pos.EstimatedMargin = estimateMargin(pos.Legs)

	if entry.Sym1 > 0 && entry.Sym2 > 0 {
		diff := moneynessDiffPct(strikes, cfg.StrategyType, entry)
		pos.MoneynessDiffPct = diff
		pos.MoneynessWarn = diff > MoneynessWarnThreshold
	}

	if err := pos.Validate(); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

// MoneynessWarnThreshold mirrors internal/config.MoneynessWarnThreshold;
// duplicated here as a parameterless default so position stays a pure
// function of its arguments. Build always uses this threshold.
const MoneynessWarnThreshold = 0.05

// buildSpread resolves one call or put spread's two legs per the
// direction table, and computes its credit.
func buildSpread(cfg models.StrategyConfig, right models.Right, dir models.Direction, sym1Strike, sym2Strike float64, prices Prices) ([]models.Leg, float64, error) {
	sym1Name, sym2Name := legNamesFor(right)
	sym1Price, ok1 := priceOK(prices, sym1Name)
	sym2Price, ok2 := priceOK(prices, sym2Name)
	if !ok1 || !ok2 {
		return nil, 0, missingLegErr(sym1Name, sym2Name, ok1, ok2)
	}

	var sellLeg, buyLeg models.Leg
	switch dir {
	case models.DirSellSym2BuySym1:
		sellLeg = models.Leg{Symbol: cfg.Sym2, Strike: sym2Strike, Right: right, Action: models.Sell, Quantity: 1, EntryPrice: sym2Price.Price}
		buyLeg = models.Leg{Symbol: cfg.Sym1, Strike: sym1Strike, Right: right, Action: models.Buy, Quantity: cfg.QtyRatio, EntryPrice: sym1Price.Price}
	case models.DirSellSym1BuySym2:
		sellLeg = models.Leg{Symbol: cfg.Sym1, Strike: sym1Strike, Right: right, Action: models.Sell, Quantity: cfg.QtyRatio, EntryPrice: sym1Price.Price}
		buyLeg = models.Leg{Symbol: cfg.Sym2, Strike: sym2Strike, Right: right, Action: models.Buy, Quantity: 1, EntryPrice: sym2Price.Price}
	default:
		return nil, 0, fmt.Errorf("%w: unknown direction %q", models.ErrInvalidArgument, dir)
	}

	credit := (sellLeg.EntryPrice*float64(sellLeg.Quantity) - buyLeg.EntryPrice*float64(buyLeg.Quantity)) * 100
	return []models.Leg{sellLeg, buyLeg}, credit, nil
}

func legNamesFor(right models.Right) (sym1, sym2 LegName) {
	if right == models.Call {
		return LegSym1Call, LegSym2Call
	}
	return LegSym1Put, LegSym2Put
}

func priceOK(prices Prices, name LegName) (models.PriceQuote, bool) {
	q, found := prices[name]
	if !found || q == nil || q.IsStale {
		return models.PriceQuote{}, false
	}
	return *q, true
}

func missingLegErr(sym1Name, sym2Name LegName, ok1, ok2 bool) error {
	var bad []LegName
	if !ok1 {
		bad = append(bad, sym1Name)
	}
	if !ok2 {
		bad = append(bad, sym2Name)
	}
	return fmt.Errorf("%w: leg(s) %v have an absent or stale price", models.ErrPreconditionNotMet, bad)
}

// estimateMargin sums, over active spreads, max(0, MARGIN_RATE *
// sell_strike * sell_qty * 100 - credit). This is a placeholder
// approximation; real brokerage margin calculation is out of scope.
func estimateMargin(legs []models.Leg) float64 {
	var total float64
	// Legs are emitted in (sell, buy) pairs by buildSpread.
	for i := 0; i+1 < len(legs); i += 2 {
		sell, buy := legs[i], legs[i+1]
		if sell.Action != models.Sell {
			sell, buy = buy, sell
		}
		credit := (sell.EntryPrice*float64(sell.Quantity) - buy.EntryPrice*float64(buy.Quantity)) * 100
		margin := MarginRate*sell.Strike*float64(sell.Quantity)*100 - credit
		if margin > 0 {
			total += margin
		}
	}
	return total
}

// MarginRate mirrors internal/config.MarginRate.
const MarginRate = 0.20

func moneynessDiffPct(strikes Strikes, st models.StrategyType, entry EntryUnderlying) float64 {
	var sym1Strike, sym2Strike float64
	switch st {
	case models.StrategyCallsOnly:
		sym1Strike, sym2Strike = strikes.Sym1Call, strikes.Sym2Call
	case models.StrategyPutsOnly:
		sym1Strike, sym2Strike = strikes.Sym1Put, strikes.Sym2Put
	default:
		// full: use the call spread strikes; both spreads are matched
		// identically by the scanner's pair-tolerance admissibility.
		sym1Strike, sym2Strike = strikes.Sym1Call, strikes.Sym2Call
	}
	m1 := (sym1Strike - entry.Sym1) / entry.Sym1 * 100
	m2 := (sym2Strike - entry.Sym2) / entry.Sym2 * 100
	return math.Abs(m1 - m2)
}

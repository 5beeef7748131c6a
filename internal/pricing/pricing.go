// Package pricing answers point-in-time price queries for a single
// option contract, reconciling trade and quote series into one
// PriceQuote with liquidity annotations. Every function here is a
// pure function of its inputs; none of them log or cache.
package pricing

import (
	"sort"
	"time"

	"sym2arb/internal/models"
)

// DefaultWideSpreadThresholdPct and DefaultMinVolume mirror internal/config's
// constants; pricing takes them as parameters rather than importing
// config directly so it stays a pure function of its arguments.
const (
	DefaultWideSpreadThresholdPct = 20.0
	DefaultMinVolume              = 10
)

// Params bundles the liquidity thresholds PriceAt evaluates against.
type Params struct {
	WideSpreadThresholdPct float64
	MinVolume              int64
}

// DefaultParams returns the default thresholds.
func DefaultParams() Params {
	return Params{WideSpreadThresholdPct: DefaultWideSpreadThresholdPct, MinVolume: DefaultMinVolume}
}

// PriceAt looks up the price of one option contract (symbol, strike,
// right) at time t, using trades and quotes already filtered to that
// contract and ordered by timestamp ascending. Either slice may be nil
// to represent an absent source. Returns ok=false if no price can be
// determined.
func PriceAt(trades []models.OptionBar, quotes []models.OptionQuoteBar, t time.Time, p Params) (models.PriceQuote, bool) {
	quoteRow, quoteFound := nearestQuoteAtOrBefore(quotes, t)
	tradeRow, tradeFound := nearestTradeAtOrBefore(trades, t)

	var q models.PriceQuote
	haveMid := quoteFound && quoteRow.Valid()

	switch {
	case haveMid:
		q.Price = quoteRow.Midpoint()
		q.Source = models.SourceMidpoint
		bid, ask := quoteRow.Bid, quoteRow.Ask
		q.Bid = &bid
		q.Ask = &ask
		spread := ask - bid
		q.Spread = &spread
		spreadPct := spread / q.Price * 100
		q.SpreadPct = &spreadPct
	case tradeFound:
		q.Price = tradeRow.Close
		q.Source = models.SourceTrade
		q.Volume = tradeRow.Volume
	default:
		return models.PriceQuote{}, false
	}

	if tradeFound {
		q.Volume = tradeRow.Volume
	}

	q.IsStale = computeStale(q, tradeFound, tradeRow, quoteFound, quoteRow, t)

	if q.SpreadPct != nil && *q.SpreadPct > p.WideSpreadThresholdPct {
		q.Warning = models.WarningWideSpread
	} else if q.Source == models.SourceTrade && tradeFound && tradeRow.Volume < p.MinVolume {
		q.Warning = models.WarningLowVolume
	} else if q.Source == models.SourceTrade && !haveMid {
		q.Warning = models.WarningNoQuote
	}

	return q, true
}

// computeStale decides the is_stale flag: a valid midpoint at exactly
// t is never stale, regardless of whether a trade exists at t.
func computeStale(
	q models.PriceQuote,
	tradeFound bool, tradeRow models.OptionBar,
	quoteFound bool, quoteRow models.OptionQuoteBar,
	t time.Time,
) bool {
	if q.Source == models.SourceTrade {
		return tradeFound && tradeRow.Volume == 0
	}
	// Source == midpoint.
	if quoteFound && quoteRow.Valid() && quoteRow.Timestamp.Equal(t) {
		return false
	}
	if tradeFound && tradeRow.Volume > 0 {
		return false
	}
	return true
}

// nearestTradeAtOrBefore returns the latest bar at or before t, ties
// breaking to the newer (later-indexed) row; trades is assumed ordered
// ascending by timestamp and confined to a single contract and day.
func nearestTradeAtOrBefore(trades []models.OptionBar, t time.Time) (models.OptionBar, bool) {
	idx := sort.Search(len(trades), func(i int) bool { return trades[i].Timestamp.After(t) })
	if idx == 0 {
		return models.OptionBar{}, false
	}
	return trades[idx-1], true
}

// nearestQuoteAtOrBefore is the quote-series analogue of
// nearestTradeAtOrBefore.
func nearestQuoteAtOrBefore(quotes []models.OptionQuoteBar, t time.Time) (models.OptionQuoteBar, bool) {
	idx := sort.Search(len(quotes), func(i int) bool { return quotes[i].Timestamp.After(t) })
	if idx == 0 {
		return models.OptionQuoteBar{}, false
	}
	return quotes[idx-1], true
}

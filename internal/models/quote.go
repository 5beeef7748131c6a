package models

// PriceSource identifies which upstream series a PriceQuote was derived
// from. Midpoint takes precedence over trade.
type PriceSource string

// Valid PriceSource values.
const (
	SourceMidpoint PriceSource = "midpoint"
	SourceTrade    PriceSource = "trade"
)

// Warning annotates a liquidity concern on a PriceQuote.
type Warning string

// Valid Warning values.
const (
	WarningWideSpread Warning = "wide_spread"
	WarningLowVolume  Warning = "low_volume"
	WarningNoQuote    Warning = "no_quote"
)

// PriceQuote is the derived, request-scoped result of a price lookup.
// It is never persisted and never cached across requests.
//
// Invariants: if Source is SourceMidpoint then Bid and Ask are present
// and both > 0. If IsStale, Price may be shown for informational
// display only and MUST NOT be used to build a tradable Position.
type PriceQuote struct {
	Price       float64
	Source      PriceSource
	Volume      int64
	Bid         *float64
	Ask         *float64
	Spread      *float64 // Ask - Bid
	SpreadPct   *float64 // Spread / Midpoint * 100
	IsStale     bool
	Warning     Warning // empty string means no warning
}

// HasWarning reports whether a liquidity warning is attached.
func (q PriceQuote) HasWarning() bool {
	return q.Warning != ""
}

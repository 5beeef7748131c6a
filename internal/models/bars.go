package models

import "time"

// Right identifies an option's side: call or put.
type Right string

// Valid Right values.
const (
	Call Right = "C"
	Put  Right = "P"
)

// UnderlyingBar is one minute-aligned OHLCV bar for an underlying symbol.
type UnderlyingBar struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"time"` // UTC, minute-aligned
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// OptionBar is one minute-aligned OHLC trade bar for an option contract.
// Volume=0 marks a carried-forward stale print from the upstream feed;
// it MUST be treated as not-executable.
type OptionBar struct {
	Symbol    string    `json:"symbol"`
	Strike    float64   `json:"strike"`
	Right     Right     `json:"right"`
	Timestamp time.Time `json:"time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// IsStaleVolume reports whether the bar's volume marks it as a carried
// forward, non-executable print.
func (b OptionBar) IsStaleVolume() bool {
	return b.Volume == 0
}

// OptionQuoteBar is one minute-aligned bid/ask snapshot for an option
// contract. A quote is valid iff both sides are strictly positive.
type OptionQuoteBar struct {
	Symbol    string    `json:"symbol"`
	Strike    float64   `json:"strike"`
	Right     Right     `json:"right"`
	Timestamp time.Time `json:"time"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
}

// Valid reports whether both sides of the quote are strictly positive.
func (q OptionQuoteBar) Valid() bool {
	return q.Bid > 0 && q.Ask > 0
}

// Midpoint returns (bid+ask)/2. Callers must check Valid first.
func (q OptionQuoteBar) Midpoint() float64 {
	return (q.Bid + q.Ask) / 2
}

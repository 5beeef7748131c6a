// Package normalization scales sym2 series by a ratio and computes
// per-minute spread and divergence series joining sym1 and sym2 on
// timestamp. All joins are inner; callers supply already
// liquidity-filtered inputs. Series may be empty.
package normalization

import (
	"time"

	"sym2arb/internal/models"
)

// NormalizedBar is a sym2 underlying bar with every price field scaled
// by 1/ratio.
type NormalizedBar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
}

// NormalizeSeries divides every price field of each bar by ratio.
func NormalizeSeries(bars []models.UnderlyingBar, ratio float64) []NormalizedBar {
	out := make([]NormalizedBar, len(bars))
	for i, b := range bars {
		out[i] = NormalizedBar{
			Timestamp: b.Timestamp,
			Open:      b.Open / ratio,
			High:      b.High / ratio,
			Low:       b.Low / ratio,
			Close:     b.Close / ratio,
		}
	}
	return out
}

// DivergencePoint is one joined sample from Divergence.
type DivergencePoint struct {
	Timestamp       time.Time
	PctChangeSym1   float64
	PctChangeSym2   float64
	PctGap          float64
	DollarGap       float64
}

// Divergence inner-joins sym1Bars and sym2Bars on timestamp and
// computes, per joined minute, each series' percent change from its
// own first bar, their gap, and the dollar gap after scaling sym2 by
// qtyRatio.
func Divergence(sym1Bars, sym2Bars []models.UnderlyingBar, qtyRatio float64) []DivergencePoint {
	if len(sym1Bars) == 0 || len(sym2Bars) == 0 {
		return nil
	}
	sym2ByTime := indexUnderlying(sym2Bars)
	base1 := sym1Bars[0].Close
	base2 := sym2Bars[0].Close

	var out []DivergencePoint
	for _, b1 := range sym1Bars {
		b2, ok := sym2ByTime[b1.Timestamp.UnixNano()]
		if !ok {
			continue
		}
		pct1 := pctChange(base1, b1.Close)
		pct2 := pctChange(base2, b2.Close)
		out = append(out, DivergencePoint{
			Timestamp:     b1.Timestamp,
			PctChangeSym1: pct1,
			PctChangeSym2: pct2,
			PctGap:        pct2 - pct1,
			DollarGap:     b2.Close/qtyRatio - b1.Close,
		})
	}
	return out
}

// SpreadPoint is one joined sample from SpreadSeries.
type SpreadPoint struct {
	Timestamp     time.Time
	Sym1Price     float64
	Sym2Normalized float64
	Spread        float64
	SpreadPct     float64
}

// TimedPrice is a generic (timestamp, price) sample, produced by
// internal/pricing over an option series, and consumed here to build a
// spread series.
type TimedPrice struct {
	Timestamp time.Time
	Price     float64
}

// SpreadSeries inner-joins sym1Opt and sym2Opt on timestamp and
// computes spread = sym2_normalized - sym1_price at each joined minute.
func SpreadSeries(sym1Opt, sym2Opt []TimedPrice, ratio float64) []SpreadPoint {
	if len(sym1Opt) == 0 || len(sym2Opt) == 0 {
		return nil
	}
	sym2ByTime := make(map[int64]float64, len(sym2Opt))
	for _, p := range sym2Opt {
		sym2ByTime[p.Timestamp.UnixNano()] = p.Price
	}
	var out []SpreadPoint
	for _, p1 := range sym1Opt {
		p2, ok := sym2ByTime[p1.Timestamp.UnixNano()]
		if !ok {
			continue
		}
		norm2 := p2 / ratio
		spread := norm2 - p1.Price
		var spreadPct float64
		if p1.Price != 0 {
			spreadPct = spread / p1.Price * 100
		}
		out = append(out, SpreadPoint{
			Timestamp:      p1.Timestamp,
			Sym1Price:      p1.Price,
			Sym2Normalized: norm2,
			Spread:         spread,
			SpreadPct:      spreadPct,
		})
	}
	return out
}

func indexUnderlying(bars []models.UnderlyingBar) map[int64]models.UnderlyingBar {
	m := make(map[int64]models.UnderlyingBar, len(bars))
	for _, b := range bars {
		m[b.Timestamp.UnixNano()] = b
	}
	return m
}

func pctChange(base, current float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

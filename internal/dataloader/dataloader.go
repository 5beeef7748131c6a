// Package dataloader loads the per-date market-data series that the
// rest of the analytical core consumes: underlying bars, option trade
// bars, and option bid/ask bars. All three are immutable once loaded,
// and may be shared read-only across concurrent scans.
package dataloader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"sym2arb/internal/models"
)

// DateID is a trading date identifier in yyyymmdd form, matching the
// data files' naming convention.
type DateID string

// Loader reads the three per-date CSV series from a data root
// directory where files live flat, named
// underlying_prices_{yyyymmdd}.csv, options_data_{yyyymmdd}.csv, and
// options_bidask_{yyyymmdd}.csv.
type Loader struct {
	Root string
}

// New constructs a Loader rooted at dataRoot.
func New(dataRoot string) *Loader {
	return &Loader{Root: dataRoot}
}

// ListDates enumerates every date the data root has an underlying
// prices file for, ordered descending (most recent first).
func (l *Loader) ListDates() ([]DateID, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: listing data root %q: %v", models.ErrNotFound, l.Root, err)
	}
	const prefix = "underlying_prices_"
	const suffix = ".csv"
	var dates []DateID
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			dates = append(dates, DateID(strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)))
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] > dates[j] })
	return dates, nil
}

// LoadUnderlying parses underlying_prices_{date}.csv. Absence is an
// error: a day with no underlying series is unusable.
func (l *Loader) LoadUnderlying(date DateID) ([]models.UnderlyingBar, error) {
	path := filepath.Join(l.Root, fmt.Sprintf("underlying_prices_%s.csv", date))
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("%w: underlying file for %s: %v", models.ErrNotFound, date, err)
	}
	bars := make([]models.UnderlyingBar, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) < 7 {
			continue
		}
		ts, err := parseUTC(row[1])
		if err != nil {
			return nil, fmt.Errorf("%w: underlying row %d timestamp: %v", models.ErrInconsistentData, i, err)
		}
		open, _ := strconv.ParseFloat(row[2], 64)
		high, _ := strconv.ParseFloat(row[3], 64)
		low, _ := strconv.ParseFloat(row[4], 64)
		cls, _ := strconv.ParseFloat(row[5], 64)
		vol, _ := strconv.ParseInt(row[6], 10, 64)
		bars = append(bars, models.UnderlyingBar{
			Symbol:    row[0],
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Volume:    vol,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// LoadOptionTrades parses options_data_{date}.csv. Absence is NOT an
// error: downstream callers degrade gracefully (ok=false signals the
// series is unavailable, distinct from an empty-but-present series).
func (l *Loader) LoadOptionTrades(date DateID) ([]models.OptionBar, bool, error) {
	path := filepath.Join(l.Root, fmt.Sprintf("options_data_%s.csv", date))
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: option trades file for %s: %v", models.ErrInconsistentData, date, err)
	}
	bars := make([]models.OptionBar, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 9 {
			continue
		}
		ts, err := parseUTC(row[3])
		if err != nil {
			return nil, false, fmt.Errorf("%w: option trade row %d timestamp: %v", models.ErrInconsistentData, i, err)
		}
		strike, _ := strconv.ParseFloat(row[1], 64)
		cls, _ := strconv.ParseFloat(row[7], 64)
		vol, _ := strconv.ParseInt(row[8], 10, 64)
		if vol < 0 {
			return nil, false, fmt.Errorf("%w: option trade row %d has negative volume", models.ErrInconsistentData, i)
		}
		bars = append(bars, models.OptionBar{
			Symbol:    row[0],
			Strike:    strike,
			Right:     models.Right(row[2]),
			Timestamp: ts,
			Close:     cls,
			Volume:    vol,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, true, nil
}

// LoadOptionQuotes parses options_bidask_{date}.csv. Absence is NOT an
// error, mirroring LoadOptionTrades.
func (l *Loader) LoadOptionQuotes(date DateID) ([]models.OptionQuoteBar, bool, error) {
	path := filepath.Join(l.Root, fmt.Sprintf("options_bidask_%s.csv", date))
	rows, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: option quotes file for %s: %v", models.ErrInconsistentData, date, err)
	}
	bars := make([]models.OptionQuoteBar, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 6 {
			continue
		}
		ts, err := parseUTC(row[3])
		if err != nil {
			return nil, false, fmt.Errorf("%w: option quote row %d timestamp: %v", models.ErrInconsistentData, i, err)
		}
		strike, _ := strconv.ParseFloat(row[1], 64)
		bid, _ := strconv.ParseFloat(row[4], 64)
		ask, _ := strconv.ParseFloat(row[5], 64)
		if bid > 0 && ask > 0 && bid > ask {
			return nil, false, fmt.Errorf("%w: option quote row %d has bid>ask", models.ErrInconsistentData, i)
		}
		bars = append(bars, models.OptionQuoteBar{
			Symbol:    row[0],
			Strike:    strike,
			Right:     models.Right(row[2]),
			Timestamp: ts,
			Bid:       bid,
			Ask:       ask,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, true, nil
}

// GetSymbolFrames splits an underlying series into the sym1 and sym2
// sub-series, each still ordered by timestamp.
func GetSymbolFrames(bars []models.UnderlyingBar, sym1, sym2 string) (sym1Bars, sym2Bars []models.UnderlyingBar) {
	for _, b := range bars {
		switch b.Symbol {
		case sym1:
			sym1Bars = append(sym1Bars, b)
		case sym2:
			sym2Bars = append(sym2Bars, b)
		}
	}
	return sym1Bars, sym2Bars
}

func parseUTC(s string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is built from a trusted data root + date
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

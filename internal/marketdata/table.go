// Package marketdata provides the tabular market data consumed by the
// simulation: date×ticker tables, named scalar series, and a sector map.
package marketdata

import (
	"math"
	"sort"
	"time"
)

// NormalizeDate truncates a timestamp to a UTC calendar date. All table and
// series lookups key on normalized dates.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateKey(t time.Time) int64 {
	return NormalizeDate(t).Unix()
}

// Table is a dense date×ticker matrix of float64 values. Missing cells hold
// NaN. Rows are ordered by date.
type Table struct {
	dates   []time.Time
	tickers []string
	dateIdx map[int64]int
	tickIdx map[string]int
	vals    [][]float64
}

// NewTable creates a table covering the given dates and tickers, with every
// cell missing. Dates are normalized and sorted; duplicates collapse.
func NewTable(dates []time.Time, tickers []string) *Table {
	uniq := make(map[int64]time.Time, len(dates))
	for _, d := range dates {
		nd := NormalizeDate(d)
		uniq[nd.Unix()] = nd
	}
	sorted := make([]time.Time, 0, len(uniq))
	for _, d := range uniq {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	t := &Table{
		dates:   sorted,
		tickers: append([]string(nil), tickers...),
		dateIdx: make(map[int64]int, len(sorted)),
		tickIdx: make(map[string]int, len(tickers)),
		vals:    make([][]float64, len(sorted)),
	}
	for i, d := range sorted {
		t.dateIdx[d.Unix()] = i
	}
	for i, tk := range t.tickers {
		t.tickIdx[tk] = i
	}
	for i := range t.vals {
		row := make([]float64, len(tickers))
		for j := range row {
			row[j] = math.NaN()
		}
		t.vals[i] = row
	}
	return t
}

// Dates returns the ordered date index.
func (t *Table) Dates() []time.Time {
	return t.dates
}

// Tickers returns the column labels.
func (t *Table) Tickers() []string {
	return t.tickers
}

// HasDate reports whether the table has a row for the given date.
func (t *Table) HasDate(date time.Time) bool {
	_, ok := t.dateIdx[dateKey(date)]
	return ok
}

// Set stores a value. Unknown dates or tickers are ignored.
func (t *Table) Set(date time.Time, ticker string, v float64) {
	i, ok := t.dateIdx[dateKey(date)]
	if !ok {
		return
	}
	j, ok := t.tickIdx[ticker]
	if !ok {
		return
	}
	t.vals[i][j] = v
}

// At returns the value at (date, ticker). The second result is false when
// the cell is missing or outside the table.
func (t *Table) At(date time.Time, ticker string) (float64, bool) {
	i, ok := t.dateIdx[dateKey(date)]
	if !ok {
		return 0, false
	}
	j, ok := t.tickIdx[ticker]
	if !ok {
		return 0, false
	}
	v := t.vals[i][j]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ValueOr returns the value at (date, ticker), or fallback when missing.
func (t *Table) ValueOr(date time.Time, ticker string, fallback float64) float64 {
	if v, ok := t.At(date, ticker); ok {
		return v
	}
	return fallback
}

// RollingMean returns a table of trailing window-averages per ticker.
// A cell is present once window values (missing treated as zero) have been
// seen for that ticker.
func (t *Table) RollingMean(window int) *Table {
	out := NewTable(t.dates, t.tickers)
	if window <= 0 || len(t.dates) == 0 {
		return out
	}
	for j := range t.tickers {
		var sum float64
		for i := range t.dates {
			v := t.vals[i][j]
			if math.IsNaN(v) {
				v = 0
			}
			sum += v
			if i >= window {
				prev := t.vals[i-window][j]
				if math.IsNaN(prev) {
					prev = 0
				}
				sum -= prev
			}
			if i >= window-1 {
				out.vals[i][j] = sum / float64(window)
			}
		}
	}
	return out
}

// Package calendar provides the trading-date sequence and the cash-fund NAV
// path derived from a risk-free-rate series.
package calendar

import (
	"sort"
	"time"

	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/marketdata"
)

// Calendar is the ordered, duplicate-free sequence of trading dates for one
// simulation. It is fixed for the simulation's lifetime once built.
type Calendar struct {
	dates []time.Time
	idx   map[int64]int
}

// Build derives the active calendar from a raw date index intersected with
// the [start, end) window. Fails when the window holds no trading dates.
func Build(index []time.Time, start, end time.Time) (*Calendar, error) {
	start = marketdata.NormalizeDate(start)
	end = marketdata.NormalizeDate(end)

	uniq := make(map[int64]time.Time)
	for _, d := range index {
		nd := marketdata.NormalizeDate(d)
		if nd.Before(start) || !nd.Before(end) {
			continue
		}
		uniq[nd.Unix()] = nd
	}
	if len(uniq) == 0 {
		return nil, apperrors.Wrapf(apperrors.ErrNoCalendar, "no trading dates in [%s, %s)",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	dates := make([]time.Time, 0, len(uniq))
	for _, d := range uniq {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	cal := &Calendar{
		dates: dates,
		idx:   make(map[int64]int, len(dates)),
	}
	for i, d := range dates {
		cal.idx[d.Unix()] = i
	}
	return cal, nil
}

// Len returns the number of trading days.
func (c *Calendar) Len() int {
	return len(c.dates)
}

// Date returns the date of the given day index.
func (c *Calendar) Date(day int) time.Time {
	return c.dates[day]
}

// Dates returns the full ordered date sequence.
func (c *Calendar) Dates() []time.Time {
	return c.dates
}

// Index returns the day index of a date.
func (c *Calendar) Index(date time.Time) (int, bool) {
	i, ok := c.idx[marketdata.NormalizeDate(date).Unix()]
	return i, ok
}

// First returns the first trading date.
func (c *Calendar) First() time.Time {
	return c.dates[0]
}

// Last returns the last trading date.
func (c *Calendar) Last() time.Time {
	return c.dates[len(c.dates)-1]
}

// MonthChanged reports whether the given day opens a new calendar month
// relative to the previous trading day. Day 0 never does.
func (c *Calendar) MonthChanged(day int) bool {
	if day <= 0 {
		return false
	}
	return c.dates[day].Month() != c.dates[day-1].Month() ||
		c.dates[day].Year() != c.dates[day-1].Year()
}

// WeekChanged reports whether the given day opens a new ISO week relative
// to the previous trading day. Day 0 never does.
func (c *Calendar) WeekChanged(day int) bool {
	if day <= 0 {
		return false
	}
	y1, w1 := c.dates[day-1].ISOWeek()
	y2, w2 := c.dates[day].ISOWeek()
	return y1 != y2 || w1 != w2
}

// Package strategy provides built-in trading strategies and the rebalance
// scheduling they share.
package strategy

import (
	"fmt"
	"time"

	"portfolio-backtest/internal/calendar"
	apperrors "portfolio-backtest/internal/errors"
)

// MonthDay is a recurring calendar anniversary, year-agnostic.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses an "MM-DD" anniversary.
func ParseMonthDay(s string) (MonthDay, error) {
	var m, d int
	if _, err := fmt.Sscanf(s, "%2d-%2d", &m, &d); err != nil {
		return MonthDay{}, apperrors.NewValidationError("rebalance_date", s, "must be MM-DD")
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return MonthDay{}, apperrors.NewValidationError("rebalance_date", s, "out of range")
	}
	return MonthDay{Month: time.Month(m), Day: d}, nil
}

// ParseMonthDays parses a list of "MM-DD" anniversaries.
func ParseMonthDays(in []string) ([]MonthDay, error) {
	out := make([]MonthDay, 0, len(in))
	for _, s := range in {
		md, err := ParseMonthDay(s)
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, nil
}

// Schedule decides on which trading days a strategy rebalances: always on
// day one, optionally on every ISO-week change, and whenever the calendar
// crosses one of the anniversaries.
type Schedule struct {
	Weekly        bool
	Anniversaries []MonthDay
}

// ShouldRebalance reports whether the strategy rebalances on the given day.
func (sch Schedule) ShouldRebalance(cal *calendar.Calendar, day int) bool {
	if day < 1 {
		return false
	}
	if day == 1 {
		return true
	}
	if sch.Weekly && cal.WeekChanged(day) {
		return true
	}

	prev := cal.Date(day - 1)
	cur := cal.Date(day)
	for _, a := range sch.Anniversaries {
		if crossed(prev, cur, a) {
			return true
		}
	}
	return false
}

// crossed reports whether an anniversary falls in the half-open interval
// (prev, cur], including anniversaries landing in the gap of a year change.
func crossed(prev, cur time.Time, a MonthDay) bool {
	for y := prev.Year(); y <= cur.Year(); y++ {
		ann := time.Date(y, a.Month, a.Day, 0, 0, 0, 0, time.UTC)
		if prev.Before(ann) && !cur.Before(ann) {
			return true
		}
	}
	return false
}

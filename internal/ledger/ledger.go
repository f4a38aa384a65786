// Package ledger provides the time-indexed tables the simulation mutates:
// scalar and per-ticker ledgers addressed by (day, phase), plus the
// append-only order and expense books.
package ledger

import (
	"portfolio-backtest/internal/models"
)

// ScalarLedger maps (day, phase) to a currency amount.
type ScalarLedger struct {
	vals [][]float64
}

// NewScalarLedger creates a zeroed ledger covering days trading days.
func NewScalarLedger(days int) *ScalarLedger {
	vals := make([][]float64, days)
	for i := range vals {
		vals[i] = make([]float64, models.NumPhases)
	}
	return &ScalarLedger{vals: vals}
}

// Days returns the number of days covered.
func (l *ScalarLedger) Days() int {
	return len(l.vals)
}

// At returns the value at (day, phase).
func (l *ScalarLedger) At(day int, ph models.Phase) float64 {
	return l.vals[day][ph]
}

// Set stores a value at (day, phase).
func (l *ScalarLedger) Set(day int, ph models.Phase, v float64) {
	l.vals[day][ph] = v
}

// Add adds a delta to (day, phase).
func (l *ScalarLedger) Add(day int, ph models.Phase, v float64) {
	l.vals[day][ph] += v
}

// CarryForward initializes a day's begin-of-day value from the previous
// day's end-of-day value. Day 0 stays at zero.
func (l *ScalarLedger) CarryForward(day int) {
	if day == 0 {
		l.vals[0][models.PhaseBOD] = 0
		return
	}
	l.vals[day][models.PhaseBOD] = l.vals[day-1][models.PhaseEOD]
}

// CopyPhase copies one phase's value to another within the same day.
func (l *ScalarLedger) CopyPhase(day int, from, to models.Phase) {
	l.vals[day][to] = l.vals[day][from]
}

// EODSeries returns the end-of-day value per day.
func (l *ScalarLedger) EODSeries() []float64 {
	out := make([]float64, len(l.vals))
	for i := range l.vals {
		out[i] = l.vals[i][models.PhaseEOD]
	}
	return out
}

// PositionLedger maps (day, phase, ticker) to a signed share quantity.
type PositionLedger struct {
	tickers []string
	idx     map[string]int
	vals    [][][]float64
}

// NewPositionLedger creates a zeroed position ledger for the given ticker
// universe.
func NewPositionLedger(days int, tickers []string) *PositionLedger {
	l := &PositionLedger{
		tickers: append([]string(nil), tickers...),
		idx:     make(map[string]int, len(tickers)),
		vals:    make([][][]float64, days),
	}
	for i, t := range l.tickers {
		l.idx[t] = i
	}
	for d := range l.vals {
		phases := make([][]float64, models.NumPhases)
		for p := range phases {
			phases[p] = make([]float64, len(tickers))
		}
		l.vals[d] = phases
	}
	return l
}

// Tickers returns the ticker universe.
func (l *PositionLedger) Tickers() []string {
	return l.tickers
}

// At returns the position of a ticker at (day, phase). Unknown tickers are
// flat.
func (l *PositionLedger) At(day int, ph models.Phase, ticker string) float64 {
	j, ok := l.idx[ticker]
	if !ok {
		return 0
	}
	return l.vals[day][ph][j]
}

// Add adds a signed quantity to a ticker's position at (day, phase).
func (l *PositionLedger) Add(day int, ph models.Phase, ticker string, qty float64) {
	if j, ok := l.idx[ticker]; ok {
		l.vals[day][ph][j] += qty
	}
}

// CarryForward initializes a day's begin-of-day positions from the previous
// day's end-of-day positions. Day 0 stays flat.
func (l *PositionLedger) CarryForward(day int) {
	if day == 0 {
		for j := range l.vals[0][models.PhaseBOD] {
			l.vals[0][models.PhaseBOD][j] = 0
		}
		return
	}
	copy(l.vals[day][models.PhaseBOD], l.vals[day-1][models.PhaseEOD])
}

// CopyPhase copies one phase's positions to another within the same day.
func (l *PositionLedger) CopyPhase(day int, from, to models.Phase) {
	copy(l.vals[day][to], l.vals[day][from])
}

// Row returns the positions of all tickers at (day, phase), in universe
// order. The returned slice aliases ledger storage.
func (l *PositionLedger) Row(day int, ph models.Phase) []float64 {
	return l.vals[day][ph]
}

// Holdings returns the tickers with a positive (long) or negative (short)
// position at (day, phase), in universe order.
func (l *PositionLedger) Holdings(day int, ph models.Phase, long bool) []string {
	var out []string
	for j, t := range l.tickers {
		q := l.vals[day][ph][j]
		if long && q > 0 {
			out = append(out, t)
		}
		if !long && q < 0 {
			out = append(out, t)
		}
	}
	return out
}

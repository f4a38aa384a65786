package marketdata

import (
	"sort"
	"time"

	apperrors "portfolio-backtest/internal/errors"
)

// Series is a date-indexed scalar series, ordered by date.
type Series struct {
	dates []time.Time
	vals  []float64
	idx   map[int64]int
}

// NewSeries builds a series from parallel date/value slices. Dates are
// normalized and sorted; later duplicates win.
func NewSeries(dates []time.Time, vals []float64) *Series {
	type pair struct {
		d time.Time
		v float64
	}
	uniq := make(map[int64]pair, len(dates))
	for i, d := range dates {
		if i >= len(vals) {
			break
		}
		nd := NormalizeDate(d)
		uniq[nd.Unix()] = pair{nd, vals[i]}
	}
	pairs := make([]pair, 0, len(uniq))
	for _, p := range uniq {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].d.Before(pairs[j].d) })

	s := &Series{
		dates: make([]time.Time, len(pairs)),
		vals:  make([]float64, len(pairs)),
		idx:   make(map[int64]int, len(pairs)),
	}
	for i, p := range pairs {
		s.dates[i] = p.d
		s.vals[i] = p.v
		s.idx[p.d.Unix()] = i
	}
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.dates)
}

// Dates returns the ordered date index.
func (s *Series) Dates() []time.Time {
	return s.dates
}

// At returns the value on the given date.
func (s *Series) At(date time.Time) (float64, bool) {
	i, ok := s.idx[dateKey(date)]
	if !ok {
		return 0, false
	}
	return s.vals[i], true
}

// Values returns the ordered values.
func (s *Series) Values() []float64 {
	return s.vals
}

// SeriesSet is a registry of named series. Names are resolved and validated
// at load time rather than on access.
type SeriesSet struct {
	series map[string]*Series
}

// NewSeriesSet returns an empty registry.
func NewSeriesSet() *SeriesSet {
	return &SeriesSet{series: make(map[string]*Series)}
}

// Register adds a series under a name. Empty series are rejected so missing
// inputs surface at load time.
func (ss *SeriesSet) Register(name string, s *Series) error {
	if s == nil || s.Len() == 0 {
		return apperrors.NewDataError("series", name, "empty series", nil)
	}
	ss.series[name] = s
	return nil
}

// Get resolves a named series.
func (ss *SeriesSet) Get(name string) (*Series, error) {
	s, ok := ss.series[name]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrSeriesNotFound, "series %q", name)
	}
	return s, nil
}

// Has reports whether a series is registered.
func (ss *SeriesSet) Has(name string) bool {
	_, ok := ss.series[name]
	return ok
}

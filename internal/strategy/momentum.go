package strategy

import (
	"sort"

	"github.com/rs/zerolog"

	"portfolio-backtest/internal/engine"
	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
)

// MomentumConfig parameterizes the momentum strategy.
type MomentumConfig struct {
	NumberLong  int
	NumberShort int
	TargetLong  float64 // fraction of portfolio value for the full long book
	TargetShort float64 // fraction of portfolio value for the full short book
	Lookback    int     // trading days for momentum and average volume
	VolumeFloor float64 // minimum average daily volume to be tradable
	Exclusions  []string
}

// Momentum ranks the universe by trailing return, holds the leaders long
// and the laggards short, with an average-volume floor filtering out
// illiquid names. Book weights are equal per slot against the configured
// book sizes. Rebalances at the opening decision point per its schedule.
type Momentum struct {
	cfg      MomentumConfig
	schedule Schedule
	log      zerolog.Logger

	score     *marketdata.Table
	avgVolume *marketdata.Table
	excluded  map[string]bool
}

var _ engine.Strategy = (*Momentum)(nil)

// NewMomentum precomputes the momentum scores from the close table and the
// rolling average volume from the volume table. volume may be nil, which
// disables the liquidity floor.
func NewMomentum(cfg MomentumConfig, sched Schedule, closes, volume *marketdata.Table, log zerolog.Logger) *Momentum {
	if cfg.Lookback <= 0 {
		cfg.Lookback = 63
	}

	excluded := make(map[string]bool, len(cfg.Exclusions))
	for _, t := range cfg.Exclusions {
		excluded[t] = true
	}

	m := &Momentum{
		cfg:      cfg,
		schedule: sched,
		log:      log,
		score:    trailingReturns(closes, cfg.Lookback),
		excluded: excluded,
	}
	if volume != nil {
		m.avgVolume = volume.RollingMean(cfg.Lookback)
	}
	return m
}

// trailingReturns builds a date×ticker table of simple returns over a
// lookback window.
func trailingReturns(closes *marketdata.Table, lookback int) *marketdata.Table {
	dates := closes.Dates()
	tickers := closes.Tickers()
	out := marketdata.NewTable(dates, tickers)
	for i := lookback; i < len(dates); i++ {
		for _, t := range tickers {
			base, ok := closes.At(dates[i-lookback], t)
			if !ok || base == 0 {
				continue
			}
			last, ok := closes.At(dates[i], t)
			if !ok {
				continue
			}
			out.Set(dates[i], t, last/base-1)
		}
	}
	return out
}

type rankedTicker struct {
	ticker string
	score  float64
}

// DecideOpenOrders rebalances the portfolio on scheduled days.
func (m *Momentum) DecideOpenOrders(sim *engine.Simulation) {
	if !m.schedule.ShouldRebalance(sim.Calendar(), sim.Day()) {
		return
	}

	date := sim.Date()
	ranked := make([]rankedTicker, 0, len(sim.Tickers()))
	for _, t := range sim.Tickers() {
		if m.excluded[t] {
			continue
		}
		if m.avgVolume != nil && m.avgVolume.ValueOr(date, t, 0) < m.cfg.VolumeFloor {
			continue
		}
		score, ok := m.score.At(date, t)
		if !ok {
			continue
		}
		ranked = append(ranked, rankedTicker{ticker: t, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].ticker < ranked[j].ticker
	})

	nLong := m.cfg.NumberLong
	if nLong > len(ranked) {
		nLong = len(ranked)
	}
	nShort := m.cfg.NumberShort
	if nShort > len(ranked)-nLong {
		nShort = len(ranked) - nLong
	}

	target := models.NewTargetAllocation()
	for _, rt := range ranked[:nLong] {
		target.Long[rt.ticker] = m.cfg.TargetLong / float64(m.cfg.NumberLong)
	}
	for _, rt := range ranked[len(ranked)-nShort:] {
		target.Short[rt.ticker] = -m.cfg.TargetShort / float64(m.cfg.NumberShort)
	}

	m.log.Debug().
		Str("date", date.Format("2006-01-02")).
		Int("longs", nLong).
		Int("shorts", nShort).
		Int("eligible", len(ranked)).
		Msg("momentum rebalance")
	sim.Allocate(target)
}

// DecideCloseOrders is a no-op; the strategy trades opening auctions only.
func (m *Momentum) DecideCloseOrders(*engine.Simulation) {}

package strategy

import (
	"portfolio-backtest/internal/engine"
	"portfolio-backtest/internal/models"
)

// Static steers the portfolio toward one fixed target allocation on every
// scheduled rebalance day. Useful for benchmark books and as a harness in
// tests.
type Static struct {
	target   models.TargetAllocation
	schedule Schedule
}

var _ engine.Strategy = (*Static)(nil)

// NewStatic returns a strategy holding a constant allocation.
func NewStatic(target models.TargetAllocation, sched Schedule) *Static {
	return &Static{target: target, schedule: sched}
}

// DecideOpenOrders reissues the fixed allocation on scheduled days.
func (s *Static) DecideOpenOrders(sim *engine.Simulation) {
	if !s.schedule.ShouldRebalance(sim.Calendar(), sim.Day()) {
		return
	}
	sim.Allocate(s.target)
}

// DecideCloseOrders is a no-op.
func (s *Static) DecideCloseOrders(*engine.Simulation) {}

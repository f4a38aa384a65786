package engine

import (
	"portfolio-backtest/internal/models"
)

// bodRoutine opens the day by carrying the previous day's end-of-day state
// forward. Day zero starts from all-zero ledgers; the starting cash enters
// through the day-zero injection applied at pre-close.
func (s *Simulation) bodRoutine() {
	s.position.CarryForward(s.day)
	s.cash.CarryForward(s.day)
	s.cashFund.CarryForward(s.day)
	s.provision.CarryForward(s.day)
	s.value.CarryForward(s.day)

	if s.day == 0 {
		s.injections[0] += s.params.StartCash
	}
}

// bodAdjustedRoutine copies begin-of-day state into the adjusted phase and
// applies corporate actions when an adjuster is installed.
func (s *Simulation) bodAdjustedRoutine() {
	s.position.CopyPhase(s.day, models.PhaseBOD, models.PhaseBODAdjusted)
	s.cash.CopyPhase(s.day, models.PhaseBOD, models.PhaseBODAdjusted)
	s.cashFund.CopyPhase(s.day, models.PhaseBOD, models.PhaseBODAdjusted)
	s.provision.CopyPhase(s.day, models.PhaseBOD, models.PhaseBODAdjusted)
	s.value.CopyPhase(s.day, models.PhaseBOD, models.PhaseBODAdjusted)

	if s.adjuster != nil {
		s.adjuster.Adjust(s)
	}
}

// postOpenRoutine runs the opening auction: orders registered for the day
// execute at open prices, then on a month boundary the accumulated fee
// provision is settled out of the fund.
func (s *Simulation) postOpenRoutine() {
	s.position.CopyPhase(s.day, models.PhaseBODAdjusted, models.PhasePostOpen)
	s.cash.CopyPhase(s.day, models.PhaseBODAdjusted, models.PhasePostOpen)
	s.cashFund.CopyPhase(s.day, models.PhaseBODAdjusted, models.PhasePostOpen)
	s.provision.CopyPhase(s.day, models.PhaseBODAdjusted, models.PhasePostOpen)

	s.executeOrders(models.AuctionOpen)

	if s.cal.MonthChanged(s.day) {
		s.settleProvision()
	}

	s.value.Set(s.day, models.PhasePostOpen, s.valueAt(s.day, models.PhasePostOpen, models.PriceOpen))
}

// settleProvision sweeps the accumulated fee provision out of the fund,
// charged to cash first and to cash-fund units for the remainder. On a
// liquidity shortfall the provision stays in place and settlement retries
// at the next month boundary.
func (s *Simulation) settleProvision() {
	amount := s.provision.At(s.day, s.phase)
	if amount == 0 {
		return
	}
	cashDelta, unitDelta, ok := s.chargeLiquidity(amount, 0)
	if !ok {
		s.log.Warn().
			Str("date", s.date.Format("2006-01-02")).
			Float64("provision", amount).
			Msg("not enough liquidity to settle fee provision, deferring")
		return
	}
	s.cash.Add(s.day, s.phase, cashDelta)
	s.bookCashFundMovement(unitDelta)
	s.provision.Set(s.day, s.phase, 0)

	s.log.Debug().
		Str("date", s.date.Format("2006-01-02")).
		Float64("amount", amount).
		Msg("fee provision settled")
}

// preCloseRoutine applies the day's scheduled external cash flows ahead of
// the closing auction.
func (s *Simulation) preCloseRoutine() {
	s.position.CopyPhase(s.day, models.PhasePostOpen, models.PhasePreClose)
	s.cash.CopyPhase(s.day, models.PhasePostOpen, models.PhasePreClose)
	s.cashFund.CopyPhase(s.day, models.PhasePostOpen, models.PhasePreClose)
	s.provision.CopyPhase(s.day, models.PhasePostOpen, models.PhasePreClose)

	flow := s.injections[s.day] + s.dividends[s.day] - s.withdrawals[s.day]
	if flow != 0 {
		s.cash.Add(s.day, models.PhasePreClose, flow)
	}

	s.value.Set(s.day, models.PhasePreClose, s.valueAt(s.day, models.PhasePreClose, models.PriceOpen))
}

// eodRoutine runs the closing auction, accrues the daily fund fee on the
// resulting portfolio value and records the day's summary metrics.
func (s *Simulation) eodRoutine() {
	s.position.CopyPhase(s.day, models.PhasePreClose, models.PhaseEOD)
	s.cash.CopyPhase(s.day, models.PhasePreClose, models.PhaseEOD)
	s.cashFund.CopyPhase(s.day, models.PhasePreClose, models.PhaseEOD)
	s.provision.CopyPhase(s.day, models.PhasePreClose, models.PhaseEOD)

	s.executeOrders(models.AuctionClose)

	value := s.valueAt(s.day, models.PhaseEOD, models.PriceClose)
	fee := value * s.feeDaily
	if fee != 0 {
		s.provision.Add(s.day, models.PhaseEOD, fee)
		s.expenses.Record(models.Expense{
			Day:   s.day,
			Date:  s.date,
			Type:  models.ExpenseFundFees,
			Value: fee,
		})
	}

	s.value.Set(s.day, models.PhaseEOD, s.valueAt(s.day, models.PhaseEOD, models.PriceClose))
	s.recordSummary()
}

// recordSummary captures the derived end-of-day series: close-valued
// position values, cash-fund value and the book-level exposure metrics.
func (s *Simulation) recordSummary() {
	day := s.day
	row := s.position.Row(day, models.PhaseEOD)

	var longVal, shortVal float64
	var longCount, shortCount int
	for j, t := range s.tickers {
		if row[j] == 0 {
			s.positionValue[day][j] = 0
			continue
		}
		pv := row[j] * s.close.ValueOr(s.date, t, 0)
		s.positionValue[day][j] = pv
		if row[j] > 0 {
			longVal += pv
			longCount++
		} else {
			shortVal += pv
			shortCount++
		}
	}
	s.cashFundValue[day] = s.cashFund.At(day, models.PhaseEOD) * s.nav.At(day)

	value := s.value.At(day, models.PhaseEOD)
	sum := models.DailySummary{
		Value:         value,
		CashFundValue: s.cashFundValue[day],
		LongValue:     longVal,
		ShortValue:    shortVal,
		LongCount:     longCount,
		ShortCount:    shortCount,
		NetExposure:   longVal + shortVal,
		GrossExposure: longVal - shortVal,
	}
	if value != 0 {
		sum.NetExposurePct = sum.NetExposure / value
		sum.GrossExposurePct = sum.GrossExposure / value
	}
	s.summaries[day] = sum
}

package engine

import (
	"fmt"
	"math"

	"portfolio-backtest/internal/models"
)

// chargeLiquidity computes how to charge an amount against the portfolio's
// liquidity at the current (day, phase): cash absorbs the charge first,
// cash-fund units cover the remainder. pendingUnits counts unit movements
// accumulated earlier in the same batch, so in-flight redemptions reduce
// the available liquidity. Returns the cash delta and the unit delta; ok is
// false when liquidity does not cover the amount, in which case nothing is
// charged.
func (s *Simulation) chargeLiquidity(amount, pendingUnits float64) (cashDelta, unitDelta float64, ok bool) {
	nav := s.nav.At(s.day)
	cash := s.cash.At(s.day, s.phase)
	units := s.cashFund.At(s.day, s.phase) + pendingUnits

	liquidity := cash + units*nav
	if liquidity-amount < 0 {
		return 0, 0, false
	}
	cashDelta = math.Max(-math.Min(cash, amount), -amount)
	unitDelta = (-amount - cashDelta) / nav
	return cashDelta, unitDelta, true
}

// executeOrders fills every order registered for the current day at the
// given auction's reference price. Orders execute in registration sequence;
// a fill that would exceed the remaining liquidity marks the order
// not-completed and leaves all ledgers untouched. After the batch, any
// residual cash sweeps into the cash fund so cash ends the phase at exactly
// zero.
func (s *Simulation) executeOrders(auction models.Auction) {
	prices := s.close
	if auction.PriceReference() == models.PriceOpen {
		prices = s.open
	}

	var movement float64 // cash-fund units moved by this batch
	for _, o := range s.orders.RegisteredOn(s.day) {
		price, ok := prices.At(s.date, o.Ticker)
		if !ok {
			o.Status = models.OrderNotCompleted
			o.Message = fmt.Sprintf("no %s price for %s", auction, o.Ticker)
			s.log.Warn().
				Str("ticker", o.Ticker).
				Str("purpose", o.Purpose).
				Str("date", s.date.Format("2006-01-02")).
				Msg("order skipped, missing auction price")
			continue
		}

		value := o.Quantity * price
		commission := math.Abs(value) * s.params.Commission
		cost := value + commission

		cashDelta, unitDelta, ok := s.chargeLiquidity(cost, movement)
		if !ok {
			o.Status = models.OrderNotCompleted
			o.Message = "not enough liquidity to complete"
			s.log.Warn().
				Str("ticker", o.Ticker).
				Str("purpose", o.Purpose).
				Float64("cost", cost).
				Msg("order rejected, insufficient liquidity")
			continue
		}

		s.cash.Add(s.day, s.phase, cashDelta)
		movement += unitDelta
		s.position.Add(s.day, s.phase, o.Ticker, o.Quantity)

		o.Price = price
		o.Value = value
		o.Commission = commission
		o.Cost = cost
		o.Status = models.OrderCompleted

		if commission != 0 {
			s.expenses.Record(models.Expense{
				Day:     s.day,
				Date:    s.date,
				Type:    models.ExpenseCommission,
				Ticker:  o.Ticker,
				Value:   commission,
				Purpose: o.Purpose,
			})
		}
	}

	// Sweep whatever cash is left into the fund together with the batch's
	// accumulated unit movement.
	cash := s.cash.At(s.day, s.phase)
	s.cash.Set(s.day, s.phase, 0)
	movement += cash / s.nav.At(s.day)
	s.bookCashFundMovement(movement)
}

// bookCashFundMovement applies a cash-fund unit movement to the ledger and
// books it as an already-completed synthetic order at the current net asset
// value. Cash-fund movements never pay commission.
func (s *Simulation) bookCashFundMovement(units float64) {
	if units == 0 {
		return
	}
	s.cashFund.Add(s.day, s.phase, units)

	nav := s.nav.At(s.day)
	typ := models.OrderBuy
	if units < 0 {
		typ = models.OrderSell
	}
	s.orders.Append(&models.Order{
		Day:      s.day,
		Date:     s.date,
		Type:     typ,
		Ticker:   models.CashFundTicker,
		Quantity: units,
		Price:    nav,
		Value:    units * nav,
		Cost:     units * nav,
		Status:   models.OrderCompleted,
		Purpose:  models.PurposeCashMovement,
	})
}

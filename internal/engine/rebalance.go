package engine

import (
	"math"

	"portfolio-backtest/internal/models"
)

// lotSize is the round-lot granularity applied to non-closing orders.
const lotSize = 100

// Allocate registers the orders that move the portfolio toward a target
// allocation. The sequence is fixed: positions leaving the long book close
// first, the short book turns over next, and new long entries come last.
func (s *Simulation) Allocate(target models.TargetAllocation) {
	longs := s.position.Holdings(s.day, s.phase, true)
	shorts := s.position.Holdings(s.day, s.phase, false)

	inLongs := make(map[string]bool, len(longs))
	for _, t := range longs {
		inLongs[t] = true
	}
	inShorts := make(map[string]bool, len(shorts))
	for _, t := range shorts {
		inShorts[t] = true
	}

	// Close longs absent from the target long book.
	for _, t := range longs {
		if _, ok := target.Long[t]; !ok {
			s.OrderTargetPercent(t, 0, models.PriceOpen, 0, models.PurposeCloseLong)
		}
	}
	// Enter shorts not yet held short.
	for t, pct := range target.Short {
		if !inShorts[t] {
			s.OrderTargetPercent(t, pct, models.PriceOpen, 0, models.PurposeEnterShort)
		}
	}
	// Rebalance shorts still in the target short book.
	for _, t := range shorts {
		if pct, ok := target.Short[t]; ok {
			s.OrderTargetPercent(t, pct, models.PriceOpen, 0, models.PurposeRebalanceShort)
		}
	}
	// Rebalance longs still in the target long book.
	for _, t := range longs {
		if pct, ok := target.Long[t]; ok {
			s.OrderTargetPercent(t, pct, models.PriceOpen, 0, models.PurposeRebalanceLong)
		}
	}
	// Close shorts absent from the target short book.
	for _, t := range shorts {
		if _, ok := target.Short[t]; !ok {
			s.OrderTargetPercent(t, 0, models.PriceOpen, 0, models.PurposeCloseShort)
		}
	}
	// Enter longs not yet held long.
	for t, pct := range target.Long {
		if !inLongs[t] {
			s.OrderTargetPercent(t, pct, models.PriceOpen, 0, models.PurposeEnterLong)
		}
	}
}

// OrderTargetPercent registers an order sizing a ticker toward a fraction
// of current portfolio value. Sizing starts from the adjusted position,
// the held quantity plus any same-date orders still registered, so repeated
// targeting within one batch does not double-order. A zero target closes
// the adjusted position exactly; any other target trades the value gap
// rounded down in magnitude to whole round lots. offset shifts the
// execution day forward on the calendar.
func (s *Simulation) OrderTargetPercent(ticker string, target float64, ref models.PriceReference, offset int, purpose string) {
	day := s.day + offset
	if day >= s.cal.Len() {
		return
	}
	date := s.cal.Date(day)

	prices := s.close
	if ref == models.PriceOpen {
		prices = s.open
	}
	price, ok := prices.At(date, ticker)
	if !ok || price == 0 {
		s.log.Debug().
			Str("ticker", ticker).
			Str("purpose", purpose).
			Msg("no reference price, order not sized")
		return
	}

	adjusted := s.position.At(s.day, s.phase, ticker) + s.orders.PendingQuantity(s.date, ticker)

	var qty float64
	if target == 0 {
		qty = -adjusted
	} else {
		value := s.value.At(s.day, s.phase)
		if value == 0 {
			return
		}
		current := adjusted * price / value
		delta := (target - current) * value / price
		qty = math.Copysign(math.Floor(math.Abs(delta)/lotSize)*lotSize, delta)
	}
	if qty == 0 {
		return
	}

	typ := models.OrderBuy
	if qty < 0 {
		typ = models.OrderSell
	}
	s.orders.Append(&models.Order{
		Day:      day,
		Date:     date,
		Type:     typ,
		Ticker:   ticker,
		Quantity: qty,
		Status:   models.OrderRegistered,
		Purpose:  purpose,
	})
}

package ledger

import (
	"testing"
	"time"

	"portfolio-backtest/internal/models"
)

func TestScalarLedgerCarryForward(t *testing.T) {
	l := NewScalarLedger(3)
	l.Set(0, models.PhaseEOD, 42)

	l.CarryForward(1)
	if got := l.At(1, models.PhaseBOD); got != 42 {
		t.Errorf("bod = %v, want 42", got)
	}

	// Day zero opens from nothing.
	l.CarryForward(0)
	if got := l.At(0, models.PhaseBOD); got != 0 {
		t.Errorf("day 0 bod = %v, want 0", got)
	}
}

func TestScalarLedgerCopyPhaseAndAdd(t *testing.T) {
	l := NewScalarLedger(1)
	l.Set(0, models.PhaseBOD, 10)
	l.CopyPhase(0, models.PhaseBOD, models.PhaseBODAdjusted)
	l.Add(0, models.PhaseBODAdjusted, 5)

	if got := l.At(0, models.PhaseBODAdjusted); got != 15 {
		t.Errorf("bod_adjusted = %v, want 15", got)
	}
	if got := l.At(0, models.PhaseBOD); got != 10 {
		t.Errorf("bod mutated to %v", got)
	}
}

func TestScalarLedgerEODSeries(t *testing.T) {
	l := NewScalarLedger(3)
	for day, v := range []float64{1, 2, 3} {
		l.Set(day, models.PhaseEOD, v)
	}
	got := l.EODSeries()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("EODSeries = %v", got)
	}
}

func TestPositionLedgerHoldings(t *testing.T) {
	l := NewPositionLedger(1, []string{"A", "B", "C"})
	l.Add(0, models.PhaseEOD, "A", 100)
	l.Add(0, models.PhaseEOD, "C", -50)

	longs := l.Holdings(0, models.PhaseEOD, true)
	if len(longs) != 1 || longs[0] != "A" {
		t.Errorf("longs = %v, want [A]", longs)
	}
	shorts := l.Holdings(0, models.PhaseEOD, false)
	if len(shorts) != 1 || shorts[0] != "C" {
		t.Errorf("shorts = %v, want [C]", shorts)
	}
}

func TestPositionLedgerCarryForward(t *testing.T) {
	l := NewPositionLedger(2, []string{"A"})
	l.Add(0, models.PhaseEOD, "A", 100)
	l.CarryForward(1)

	if got := l.At(1, models.PhaseBOD, "A"); got != 100 {
		t.Errorf("bod position = %v, want 100", got)
	}
}

func TestOrderBookRegisteredOn(t *testing.T) {
	b := NewOrderBook()
	b.Append(&models.Order{Day: 0, Ticker: "A", Quantity: 100, Status: models.OrderRegistered})
	b.Append(&models.Order{Day: 1, Ticker: "A", Quantity: 100, Status: models.OrderRegistered})
	b.Append(&models.Order{Day: 1, Ticker: "B", Quantity: -50, Status: models.OrderCompleted})

	got := b.RegisteredOn(1)
	if len(got) != 1 || got[0].Ticker != "A" {
		t.Errorf("RegisteredOn(1) = %v", got)
	}
}

func TestOrderBookPendingQuantity(t *testing.T) {
	date := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 1)

	b := NewOrderBook()
	b.Append(&models.Order{Date: date, Ticker: "A", Quantity: 100, Status: models.OrderRegistered})
	b.Append(&models.Order{Date: date, Ticker: "A", Quantity: 200, Status: models.OrderRegistered})
	b.Append(&models.Order{Date: date, Ticker: "A", Quantity: 400, Status: models.OrderCompleted})
	b.Append(&models.Order{Date: other, Ticker: "A", Quantity: 800, Status: models.OrderRegistered})
	b.Append(&models.Order{Date: date, Ticker: "B", Quantity: 1600, Status: models.OrderRegistered})

	if got := b.PendingQuantity(date, "A"); got != 300 {
		t.Errorf("PendingQuantity = %v, want 300", got)
	}
}

func TestExpenseBookRecords(t *testing.T) {
	b := NewExpenseBook()
	b.Record(models.Expense{Type: models.ExpenseCommission, Ticker: "A", Value: 1.5})
	b.Record(models.Expense{Type: models.ExpenseFundFees, Value: 0.3})

	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	all := b.All()
	if all[0].Ticker != "A" || all[1].Type != models.ExpenseFundFees {
		t.Errorf("All = %+v", all)
	}
}

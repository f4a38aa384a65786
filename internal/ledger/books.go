package ledger

import (
	"time"

	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
)

// OrderBook is the append-only record of requested and executed trades.
// Orders keep insertion order; same-day orders execute in that order.
type OrderBook struct {
	orders []*models.Order
}

// NewOrderBook returns an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// Append adds an order to the book.
func (b *OrderBook) Append(o *models.Order) {
	b.orders = append(b.orders, o)
}

// Len returns the number of booked orders.
func (b *OrderBook) Len() int {
	return len(b.orders)
}

// All returns the booked orders in insertion order. The slice aliases book
// storage; orders themselves must not be mutated outside the engine.
func (b *OrderBook) All() []*models.Order {
	return b.orders
}

// RegisteredOn returns the still-registered orders scheduled for the given
// day, in insertion order.
func (b *OrderBook) RegisteredOn(day int) []*models.Order {
	var out []*models.Order
	for _, o := range b.orders {
		if o.Day == day && o.Status == models.OrderRegistered {
			out = append(out, o)
		}
	}
	return out
}

// PendingQuantity sums the quantities of still-registered same-date orders
// for a ticker. The rebalancer uses it to account for booked but not yet
// executed trades.
func (b *OrderBook) PendingQuantity(date time.Time, ticker string) float64 {
	date = marketdata.NormalizeDate(date)
	var sum float64
	for _, o := range b.orders {
		if o.Ticker == ticker && o.Status == models.OrderRegistered && o.Date.Equal(date) {
			sum += o.Quantity
		}
	}
	return sum
}

// ExpenseBook is the append-only record of incurred expenses.
type ExpenseBook struct {
	expenses []models.Expense
}

// NewExpenseBook returns an empty expense book.
func NewExpenseBook() *ExpenseBook {
	return &ExpenseBook{}
}

// Record appends an expense.
func (b *ExpenseBook) Record(e models.Expense) {
	b.expenses = append(b.expenses, e)
}

// Len returns the number of recorded expenses.
func (b *ExpenseBook) Len() int {
	return len(b.expenses)
}

// All returns the recorded expenses in insertion order.
func (b *ExpenseBook) All() []models.Expense {
	return b.expenses
}

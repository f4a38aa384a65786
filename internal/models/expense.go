package models

import "time"

// ExpenseType classifies an incurred fund expense.
type ExpenseType string

const (
	ExpenseCommission ExpenseType = "COMMISSION"
	ExpenseFundFees   ExpenseType = "FUND_FEES"
)

// Expense represents a single incurred expense. Ticker is empty for
// expenses not tied to an asset (fund fees).
type Expense struct {
	Day     int
	Date    time.Time
	Type    ExpenseType
	Ticker  string
	Value   float64
	Purpose string
}

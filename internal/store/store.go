// Package store provides persistence for completed backtest runs.
package store

import (
	"context"
	"time"

	"portfolio-backtest/internal/models"
)

// ResultStore defines the interface for persisting and querying runs.
type ResultStore interface {
	// Runs
	SaveRun(ctx context.Context, run *Run) (int64, error)
	GetRun(ctx context.Context, name string) (*Run, error)
	ListRuns(ctx context.Context) ([]Run, error)
	DeleteRun(ctx context.Context, name string) error

	// Ledger history
	SaveOrders(ctx context.Context, runID int64, orders []*models.Order) error
	GetOrders(ctx context.Context, runID int64, filter OrderFilter) ([]models.Order, error)
	SaveExpenses(ctx context.Context, runID int64, expenses []models.Expense) error
	GetExpenses(ctx context.Context, runID int64, filter ExpenseFilter) ([]models.Expense, error)
	SaveDailyRows(ctx context.Context, runID int64, rows []DailyRow) error
	GetDailyRows(ctx context.Context, runID int64) ([]DailyRow, error)

	// Attribution
	SaveAttribution(ctx context.Context, runID int64, scope string, rows []AttributionRow) error
	GetAttributionTotals(ctx context.Context, runID int64, scope string) (map[string]float64, error)

	// Lifecycle
	Close() error
}

// Attribution scopes stored per run.
const (
	ScopePosition = "position"
	ScopeSector   = "sector"
	ScopeBook     = "book"
)

// Run is the header row of a persisted backtest run.
type Run struct {
	ID                   int64
	Name                 string
	Start                time.Time
	End                  time.Time
	StartCash            float64
	FinalValue           float64
	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	CreatedAt            time.Time
}

// DailyRow is one trading day of a persisted run.
type DailyRow struct {
	Day              int
	Date             time.Time
	Value            float64
	CashFundValue    float64
	FeeProvision     float64
	LongValue        float64
	ShortValue       float64
	LongCount        int
	ShortCount       int
	NetExposurePct   float64
	GrossExposurePct float64
	GrossLeverage    float64
}

// AttributionRow is one (date, column) contribution cell.
type AttributionRow struct {
	Date   time.Time
	Column string
	Value  float64
}

// OrderFilter narrows order queries. Zero values match everything.
type OrderFilter struct {
	Ticker  string
	Status  string
	Purpose string
	Limit   int
}

// ExpenseFilter narrows expense queries. Zero values match everything.
type ExpenseFilter struct {
	Type   string
	Ticker string
	Limit  int
}

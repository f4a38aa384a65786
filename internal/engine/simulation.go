// Package engine implements the daily phase state machine, the order
// execution engine, and the rebalancing protocol of the backtest.
package engine

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"portfolio-backtest/internal/calendar"
	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/ledger"
	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
)

// TradingDaysPerYear is the day-count basis used to de-annualize the fund
// fee rate.
const TradingDaysPerYear = 252

// Params holds the invariable parameters of one simulation run.
type Params struct {
	Name        string
	Start       time.Time
	End         time.Time // exclusive
	StartCash   float64
	NumberLong  int
	NumberShort int
	TargetLong  float64 // fraction of portfolio value in the long book
	TargetShort float64 // fraction of portfolio value in the short book
	Commission  float64 // rate on |order notional|
	FundFees    float64 // annual management fee rate
}

// TargetCash returns the portfolio fraction left uninvested by the targets.
func (p Params) TargetCash() float64 {
	return 1 - (p.TargetLong - p.TargetShort)
}

// Inputs holds the external market data a simulation consumes. Open and
// Close are date×ticker price tables; Volume is optional and only read by
// strategies. RiskFree may be nil, degrading to a zero-rate cash fund.
type Inputs struct {
	Open     *marketdata.Table
	Close    *marketdata.Table
	Volume   *marketdata.Table
	RiskFree *marketdata.Series
	Series   *marketdata.SeriesSet
}

// Strategy decides target orders at the two decision points of a trading
// day. Implementations act by calling Allocate or OrderTargetPercent on the
// simulation. DecideOpenOrders runs before the opening auction (from day 1),
// DecideCloseOrders before the closing auction (up to the penultimate day).
type Strategy interface {
	DecideOpenOrders(sim *Simulation)
	DecideCloseOrders(sim *Simulation)
}

// CorporateActionAdjuster applies corporate-action adjustments at the
// begin-of-day-adjusted phase. The default is an identity pass-through.
type CorporateActionAdjuster interface {
	Adjust(sim *Simulation)
}

// Simulation owns every ledger and book for the lifetime of one run. It is
// the explicit context threaded through the phase routines; there is no
// process-wide state and no concurrent access.
type Simulation struct {
	params   Params
	log      zerolog.Logger
	strategy Strategy
	adjuster CorporateActionAdjuster

	cal     *calendar.Calendar
	nav     *calendar.CashFundNAV
	open    *marketdata.Table
	close   *marketdata.Table
	volume  *marketdata.Table
	series  *marketdata.SeriesSet
	tickers []string

	position  *ledger.PositionLedger
	cash      *ledger.ScalarLedger
	cashFund  *ledger.ScalarLedger
	provision *ledger.ScalarLedger
	value     *ledger.ScalarLedger

	orders   *ledger.OrderBook
	expenses *ledger.ExpenseBook

	// Per-day cash-flow schedules, applied at pre-close.
	injections  []float64
	withdrawals []float64
	dividends   []float64

	// Derived end-of-day series.
	positionValue [][]float64 // [day][ticker], close-valued
	cashFundValue []float64
	summaries     []models.DailySummary

	feeDaily float64

	day   int
	date  time.Time
	phase models.Phase
	done  bool
}

// New validates the inputs and builds a ready-to-run simulation. The
// calendar derives from the close-price date index intersected with the
// [Start, End) window; the ticker universe from the close table's columns.
func New(params Params, in Inputs, strategy Strategy, log zerolog.Logger) (*Simulation, error) {
	if in.Close == nil || in.Open == nil {
		return nil, apperrors.NewDataError("prices", params.Name, "open and close tables are required", nil)
	}
	if params.NumberLong <= 0 {
		return nil, apperrors.NewValidationError("number_long", params.NumberLong, "must be positive")
	}
	if params.NumberShort <= 0 {
		return nil, apperrors.NewValidationError("number_short", params.NumberShort, "must be positive")
	}

	cal, err := calendar.Build(in.Close.Dates(), params.Start, params.End)
	if err != nil {
		return nil, err
	}
	tickers := in.Close.Tickers()
	if len(tickers) == 0 {
		return nil, apperrors.ErrEmptyUniverse
	}

	if in.RiskFree == nil || in.RiskFree.Len() == 0 {
		log.Warn().Msg("no risk-free-rate series, cash fund assumes zero rate")
	}
	if params.TargetCash() < 0 {
		log.Warn().
			Float64("target_cash", params.TargetCash()).
			Msg("target cash fraction below zero, gross target exceeds portfolio value")
	}

	series := in.Series
	if series == nil {
		series = marketdata.NewSeriesSet()
	}

	days := cal.Len()
	s := &Simulation{
		params:   params,
		log:      log,
		strategy: strategy,

		cal:     cal,
		nav:     calendar.BuildCashFundNAV(cal, in.RiskFree),
		open:    in.Open,
		close:   in.Close,
		volume:  in.Volume,
		series:  series,
		tickers: tickers,

		position:  ledger.NewPositionLedger(days, tickers),
		cash:      ledger.NewScalarLedger(days),
		cashFund:  ledger.NewScalarLedger(days),
		provision: ledger.NewScalarLedger(days),
		value:     ledger.NewScalarLedger(days),

		orders:   ledger.NewOrderBook(),
		expenses: ledger.NewExpenseBook(),

		injections:  make([]float64, days),
		withdrawals: make([]float64, days),
		dividends:   make([]float64, days),

		positionValue: make([][]float64, days),
		cashFundValue: make([]float64, days),
		summaries:     make([]models.DailySummary, days),

		feeDaily: math.Pow(1+params.FundFees, 1.0/TradingDaysPerYear) - 1,
	}
	for d := range s.positionValue {
		s.positionValue[d] = make([]float64, len(tickers))
	}
	return s, nil
}

// SetAdjuster installs a corporate-action adjuster. Without one the
// begin-of-day-adjusted phase is an identity copy.
func (s *Simulation) SetAdjuster(a CorporateActionAdjuster) {
	s.adjuster = a
}

// ScheduleInjection adds a cash injection on a date. Applied at pre-close.
func (s *Simulation) ScheduleInjection(date time.Time, amount float64) {
	if d, ok := s.cal.Index(date); ok {
		s.injections[d] += amount
	}
}

// ScheduleWithdrawal adds a cash withdrawal on a date. Applied at pre-close.
func (s *Simulation) ScheduleWithdrawal(date time.Time, amount float64) {
	if d, ok := s.cal.Index(date); ok {
		s.withdrawals[d] += amount
	}
}

// ScheduleDividend adds a dividend receipt on a date. Applied at pre-close
// with the day's cash flow; dividends do not reprice positions.
func (s *Simulation) ScheduleDividend(date time.Time, amount float64) {
	if d, ok := s.cal.Index(date); ok {
		s.dividends[d] += amount
	}
}

// Run advances the ledgers through every trading day of the calendar. The
// phases of a day execute strictly in order; each day's first phase carries
// the previous day's terminal phase forward. Run may be called once.
func (s *Simulation) Run() error {
	if s.done {
		return apperrors.ErrSimulationDone
	}

	last := s.cal.Len() - 1
	for day := 0; day <= last; day++ {
		s.day = day
		s.date = s.cal.Date(day)

		s.phase = models.PhaseBOD
		s.bodRoutine()

		s.phase = models.PhaseBODAdjusted
		s.bodAdjustedRoutine()
		if day > 0 && s.strategy != nil {
			s.strategy.DecideOpenOrders(s)
		}

		s.phase = models.PhasePostOpen
		s.postOpenRoutine()

		s.phase = models.PhasePreClose
		s.preCloseRoutine()
		if day > 0 && day < last && s.strategy != nil {
			s.strategy.DecideCloseOrders(s)
		}

		s.phase = models.PhaseEOD
		s.eodRoutine()
	}

	s.done = true
	s.log.Info().
		Str("run", s.params.Name).
		Int("days", s.cal.Len()).
		Int("orders", s.orders.Len()).
		Float64("final_value", s.value.At(last, models.PhaseEOD)).
		Msg("simulation completed")
	return nil
}

// valueAt computes the derived portfolio value at (day, phase) under a
// price reference. Missing prices value positions at zero.
func (s *Simulation) valueAt(day int, ph models.Phase, ref models.PriceReference) float64 {
	prices := s.close
	if ref == models.PriceOpen {
		prices = s.open
	}
	date := s.cal.Date(day)

	var total float64
	row := s.position.Row(day, ph)
	for j, t := range s.tickers {
		if row[j] == 0 {
			continue
		}
		total += row[j] * prices.ValueOr(date, t, 0)
	}
	total += s.cashFund.At(day, ph) * s.nav.At(day)
	total += s.cash.At(day, ph)
	total -= s.provision.At(day, ph)
	return total
}

// Accessors. Ledgers and books are read-only outside the engine.

// Params returns the run parameters.
func (s *Simulation) Params() Params { return s.params }

// Calendar returns the trading calendar.
func (s *Simulation) Calendar() *calendar.Calendar { return s.cal }

// CashFundNAV returns the cash-fund valuation path.
func (s *Simulation) CashFundNAV() *calendar.CashFundNAV { return s.nav }

// Tickers returns the ticker universe.
func (s *Simulation) Tickers() []string { return s.tickers }

// Day returns the current day index during a run.
func (s *Simulation) Day() int { return s.day }

// Date returns the current trading date during a run.
func (s *Simulation) Date() time.Time { return s.date }

// Phase returns the current phase during a run.
func (s *Simulation) Phase() models.Phase { return s.phase }

// Done reports whether the run has completed.
func (s *Simulation) Done() bool { return s.done }

// Orders returns the order book.
func (s *Simulation) Orders() *ledger.OrderBook { return s.orders }

// Expenses returns the expense book.
func (s *Simulation) Expenses() *ledger.ExpenseBook { return s.expenses }

// Positions returns the position ledger.
func (s *Simulation) Positions() *ledger.PositionLedger { return s.position }

// Cash returns the cash ledger.
func (s *Simulation) Cash() *ledger.ScalarLedger { return s.cash }

// CashFund returns the cash-fund position ledger.
func (s *Simulation) CashFund() *ledger.ScalarLedger { return s.cashFund }

// FeeProvision returns the fee-provision ledger.
func (s *Simulation) FeeProvision() *ledger.ScalarLedger { return s.provision }

// Value returns the portfolio-value ledger.
func (s *Simulation) Value() *ledger.ScalarLedger { return s.value }

// Series returns the registry of named external series.
func (s *Simulation) Series() *marketdata.SeriesSet { return s.series }

// VolumeTable returns the volume table, which may be nil.
func (s *Simulation) VolumeTable() *marketdata.Table { return s.volume }

// CloseTable returns the close-price table.
func (s *Simulation) CloseTable() *marketdata.Table { return s.close }

// OpenTable returns the open-price table.
func (s *Simulation) OpenTable() *marketdata.Table { return s.open }

// EODValues returns the end-of-day portfolio value per day.
func (s *Simulation) EODValues() []float64 { return s.value.EODSeries() }

// PositionValues returns the close-valued end-of-day position value per
// (day, ticker), aligned with Tickers.
func (s *Simulation) PositionValues() [][]float64 { return s.positionValue }

// CashFundValues returns the end-of-day cash-fund value per day.
func (s *Simulation) CashFundValues() []float64 { return s.cashFundValue }

// EODPositions returns the end-of-day share positions for a day, aligned
// with Tickers.
func (s *Simulation) EODPositions(day int) []float64 {
	return s.position.Row(day, models.PhaseEOD)
}

// Summaries returns the derived end-of-day summary metrics per day.
func (s *Simulation) Summaries() []models.DailySummary { return s.summaries }

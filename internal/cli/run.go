package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/attribution"
	"portfolio-backtest/internal/engine"
	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
	"portfolio-backtest/internal/report"
	"portfolio-backtest/internal/store"
	"portfolio-backtest/internal/strategy"
)

func newRunCmd(app *App) *cobra.Command {
	var name string
	var noReport bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest simulation",
		Long: `Run executes the configured simulation: market data loads from the data
directory, the momentum strategy rebalances per its schedule, and results
persist to the store alongside an HTML report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config

			if err := cfg.Validate(); err != nil {
				return err
			}
			for _, w := range cfg.Warnings() {
				output.Warning("%s", w)
			}
			if name == "" {
				name = cfg.Simulation.Name
			}
			logger := app.Logger.With().Str("run", name).Logger()

			open, err := marketdata.LoadPriceTable(cfg.DataPath(cfg.Data.OpenFile))
			if err != nil {
				return err
			}
			closes, err := marketdata.LoadPriceTable(cfg.DataPath(cfg.Data.CloseFile))
			if err != nil {
				return err
			}
			var volume *marketdata.Table
			if cfg.Data.VolumeFile != "" {
				if volume, err = marketdata.LoadPriceTable(cfg.DataPath(cfg.Data.VolumeFile)); err != nil {
					return err
				}
			}
			var riskFree *marketdata.Series
			if cfg.Data.RiskFreeFile != "" {
				if riskFree, err = marketdata.LoadSeriesCSV(cfg.DataPath(cfg.Data.RiskFreeFile)); err != nil {
					return err
				}
			}
			sectors := marketdata.SectorMap{}
			if cfg.Data.SectorsFile != "" {
				if sectors, err = marketdata.LoadSectors(cfg.DataPath(cfg.Data.SectorsFile)); err != nil {
					return err
				}
			}

			anniversaries, err := strategy.ParseMonthDays(cfg.Simulation.RebalanceDates)
			if err != nil {
				return err
			}
			strat := strategy.NewMomentum(strategy.MomentumConfig{
				NumberLong:  cfg.Simulation.NumberLong,
				NumberShort: cfg.Simulation.NumberShort,
				TargetLong:  cfg.Simulation.TargetLong,
				TargetShort: cfg.Simulation.TargetShort,
				VolumeFloor: cfg.Simulation.VolumeFloor,
				Exclusions:  cfg.Simulation.Exclusions,
			}, strategy.Schedule{Weekly: true, Anniversaries: anniversaries}, closes, volume, logger)

			sim, err := engine.New(engine.Params{
				Name:        name,
				Start:       cfg.StartDate(),
				End:         cfg.EndDate(),
				StartCash:   cfg.Simulation.StartCash,
				NumberLong:  cfg.Simulation.NumberLong,
				NumberShort: cfg.Simulation.NumberShort,
				TargetLong:  cfg.Simulation.TargetLong,
				TargetShort: cfg.Simulation.TargetShort,
				Commission:  cfg.Simulation.Commission,
				FundFees:    cfg.Simulation.FundFees,
			}, engine.Inputs{
				Open:     open,
				Close:    closes,
				Volume:   volume,
				RiskFree: riskFree,
			}, strat, logger)
			if err != nil {
				return err
			}

			if err := sim.Run(); err != nil {
				return err
			}

			values := sim.EODValues()
			stats := analysis.ComputeStats(values, riskFreeDaily(sim, riskFree))
			grossLeverage := analysis.GrossLeverage(sim.Summaries())
			turnover := analysis.Turnover(
				analysis.OrderNotionalByDay(sim.Orders().All(), sim.Calendar().Len()), values)

			attr, err := attribution.Compute(sim)
			if err != nil {
				return err
			}
			sector := attribution.BySector(attr, sectors)
			book := attribution.ByBook(attr, sim)

			if app.Store != nil {
				if err := persistRun(cmd.Context(), app.Store, sim, stats, attr, sector, book); err != nil {
					return err
				}
			}

			reportPath := ""
			if !noReport {
				reportPath = filepath.Join(cfg.Output.ReportDir, name+".html")
				if err := writeReport(sim, stats, attr, sector, grossLeverage, reportPath); err != nil {
					return err
				}
			}

			return printRunSummary(output, sim, stats, book, grossLeverage, turnover, reportPath)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "run name (default: configured simulation name)")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "skip the HTML report")
	return cmd
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// riskFreeDaily aligns a rate series to the simulation calendar, missing
// dates filling as zero.
func riskFreeDaily(sim *engine.Simulation, rates *marketdata.Series) []float64 {
	out := make([]float64, sim.Calendar().Len())
	if rates == nil {
		return out
	}
	for i, date := range sim.Calendar().Dates() {
		if v, ok := rates.At(date); ok {
			out[i] = v
		}
	}
	return out
}

func persistRun(ctx context.Context, rs store.ResultStore, sim *engine.Simulation, stats analysis.Stats,
	attr, sector, book *attribution.Result) error {
	params := sim.Params()
	runID, err := rs.SaveRun(ctx, &store.Run{
		Name:                 params.Name,
		Start:                params.Start,
		End:                  params.End,
		StartCash:            params.StartCash,
		FinalValue:           stats.FinalValue,
		TotalReturn:          stats.TotalReturn,
		AnnualizedReturn:     stats.AnnualizedReturn,
		AnnualizedVolatility: stats.AnnualizedVolatility,
		SharpeRatio:          stats.SharpeRatio,
		MaxDrawdown:          stats.MaxDrawdown,
	})
	if err != nil {
		return err
	}

	if err := rs.SaveOrders(ctx, runID, sim.Orders().All()); err != nil {
		return err
	}
	if err := rs.SaveExpenses(ctx, runID, sim.Expenses().All()); err != nil {
		return err
	}

	grossLeverage := analysis.GrossLeverage(sim.Summaries())
	rows := make([]store.DailyRow, sim.Calendar().Len())
	for day, s := range sim.Summaries() {
		rows[day] = store.DailyRow{
			Day:              day,
			Date:             sim.Calendar().Date(day),
			Value:            s.Value,
			CashFundValue:    s.CashFundValue,
			FeeProvision:     sim.FeeProvision().At(day, models.PhaseEOD),
			LongValue:        s.LongValue,
			ShortValue:       s.ShortValue,
			LongCount:        s.LongCount,
			ShortCount:       s.ShortCount,
			NetExposurePct:   s.NetExposurePct,
			GrossExposurePct: s.GrossExposurePct,
			GrossLeverage:    grossLeverage[day],
		}
	}
	if err := rs.SaveDailyRows(ctx, runID, rows); err != nil {
		return err
	}

	for scope, res := range map[string]*attribution.Result{
		store.ScopePosition: attr,
		store.ScopeSector:   sector,
		store.ScopeBook:     book,
	} {
		if err := rs.SaveAttribution(ctx, runID, scope, attributionRows(res)); err != nil {
			return err
		}
	}
	return nil
}

func attributionRows(res *attribution.Result) []store.AttributionRow {
	var rows []store.AttributionRow
	for t, date := range res.Dates {
		for c, column := range res.Columns {
			if v := res.Contributions[t][c]; v != 0 {
				rows = append(rows, store.AttributionRow{Date: date, Column: column, Value: v})
			}
		}
	}
	return rows
}

func writeReport(sim *engine.Simulation, stats analysis.Stats, attr, sector *attribution.Result,
	grossLeverage []float64, path string) error {
	values := sim.EODValues()
	summaries := sim.Summaries()
	net := make([]float64, len(summaries))
	gross := make([]float64, len(summaries))
	for i, s := range summaries {
		net[i] = s.NetExposurePct
		gross[i] = s.GrossExposurePct
	}

	return report.WriteHTML(report.Input{
		Name:              sim.Params().Name,
		Dates:             sim.Calendar().Dates(),
		Values:            values,
		NAV:               analysis.NAV(values),
		Drawdown:          analysis.Drawdown(values),
		NetExposurePct:    net,
		GrossExposurePct:  gross,
		GrossLeverage:     grossLeverage,
		AttributionTotals: attr.ColumnTotals(),
		SectorTotals:      sector.ColumnTotals(),
		Stats:             stats,
	}, path)
}

func printRunSummary(output *Output, sim *engine.Simulation, stats analysis.Stats,
	book *attribution.Result, grossLeverage, turnover []float64, reportPath string) error {
	var completed, rejected int
	for _, o := range sim.Orders().All() {
		switch o.Status {
		case models.OrderCompleted:
			completed++
		case models.OrderNotCompleted:
			rejected++
		}
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"name":                  sim.Params().Name,
			"days":                  sim.Calendar().Len(),
			"final_value":           stats.FinalValue,
			"total_return":          stats.TotalReturn,
			"annualized_return":     stats.AnnualizedReturn,
			"annualized_volatility": stats.AnnualizedVolatility,
			"sharpe_ratio":          stats.SharpeRatio,
			"max_drawdown":          stats.MaxDrawdown,
			"orders_completed":      completed,
			"orders_rejected":       rejected,
			"avg_gross_leverage":    average(grossLeverage),
			"avg_daily_turnover":    average(turnover),
			"attribution_by_book":   book.ColumnTotals(),
			"report":                reportPath,
		})
	}

	output.Header("Backtest %s", sim.Params().Name)
	output.Printf("  Days            %d\n", sim.Calendar().Len())
	output.Printf("  Final value     %s\n", FormatMoney(stats.FinalValue))
	output.Printf("  Total return    %s\n", FormatPercent(stats.TotalReturn))
	output.Printf("  Annualized      %s\n", FormatPercent(stats.AnnualizedReturn))
	output.Printf("  Volatility      %s\n", FormatPercent(stats.AnnualizedVolatility))
	output.Printf("  Sharpe          %.2f\n", stats.SharpeRatio)
	output.Printf("  Max drawdown    %s\n", FormatPercent(stats.MaxDrawdown))
	output.Printf("  Orders          %d completed, %d rejected\n", completed, rejected)
	output.Printf("  Avg leverage    %.2f\n", average(grossLeverage))
	output.Printf("  Avg turnover    %s\n", FormatPercent(average(turnover)))

	totals := book.ColumnTotals()
	output.Header("Attribution")
	for _, column := range book.Columns {
		output.Printf("  %-12s %s\n", column, FormatPercent(totals[column]))
	}

	if reportPath != "" {
		output.Dim("report written to %s", reportPath)
	}
	return nil
}

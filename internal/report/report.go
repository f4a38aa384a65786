// Package report renders a completed run into a self-contained HTML page of
// performance charts.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"portfolio-backtest/internal/analysis"
)

const (
	chartWidth  = "1300px"
	chartHeight = "420px"
)

// Input carries the series and totals a report renders.
type Input struct {
	Name              string
	Dates             []time.Time
	Values            []float64
	NAV               []float64
	Drawdown          []float64
	NetExposurePct    []float64
	GrossExposurePct  []float64
	GrossLeverage     []float64
	AttributionTotals map[string]float64
	SectorTotals      map[string]float64
	Stats             analysis.Stats
}

// WriteHTML renders the report into path, creating parent directories as
// needed.
func WriteHTML(in Input, path string) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = fmt.Sprintf("Backtest %s", in.Name)

	page.AddCharts(
		equityChart(in),
		drawdownChart(in),
		exposureChart(in),
		totalsChart("Attribution by Position", in.AttributionTotals),
		totalsChart("Attribution by Sector", in.SectorTotals),
	)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle, Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)
	return line
}

func equityChart(in Input) *charts.Line {
	subtitle := fmt.Sprintf("total %.2f%%  annualized %.2f%%  sharpe %.2f",
		in.Stats.TotalReturn*100, in.Stats.AnnualizedReturn*100, in.Stats.SharpeRatio)
	line := newLine("Portfolio Value", subtitle)
	line.SetXAxis(axisDates(in.Dates))
	line.AddSeries("value", lineData(in.Values))
	line.AddSeries("nav", lineData(in.NAV),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0.6)}))
	return line
}

func drawdownChart(in Input) *charts.Line {
	subtitle := fmt.Sprintf("max drawdown %.2f%%", in.Stats.MaxDrawdown*100)
	line := newLine("Drawdown", subtitle)
	line.SetXAxis(axisDates(in.Dates))
	line.AddSeries("drawdown", lineData(in.Drawdown),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))
	return line
}

func exposureChart(in Input) *charts.Line {
	line := newLine("Exposure", "net and gross fractions of portfolio value, gross leverage over positions")
	line.SetXAxis(axisDates(in.Dates))
	line.AddSeries("net", lineData(in.NetExposurePct))
	line.AddSeries("gross", lineData(in.GrossExposurePct))
	line.AddSeries("leverage", lineData(in.GrossLeverage))
	return line
}

func totalsChart(title string, totals map[string]float64) *charts.Bar {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return totals[names[i]] > totals[names[j]] })

	data := make([]opts.BarData, len(names))
	for i, name := range names {
		data[i] = opts.BarData{Value: totals[name]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  chartWidth,
			Height: chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "cumulative return contribution", Left: "left"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: 45}}),
	)
	bar.SetXAxis(names)
	bar.AddSeries("contribution", data)
	return bar
}

func axisDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

func lineData(vals []float64) []opts.LineData {
	out := make([]opts.LineData, len(vals))
	for i, v := range vals {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

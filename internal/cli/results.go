package cli

import (
	"sort"

	"github.com/spf13/cobra"

	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/store"
)

func requireStore(app *App) error {
	if app.Store == nil {
		return apperrors.Wrap(apperrors.ErrDatabaseError, "results store unavailable")
	}
	return nil
}

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored backtest runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)

			runs, err := app.Store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("no stored runs")
				return nil
			}

			output.Header("%-20s %-12s %-12s %14s %10s %10s", "NAME", "START", "END", "FINAL VALUE", "RETURN", "MAX DD")
			for _, r := range runs {
				output.Printf("%-20s %-12s %-12s %14s %10s %10s\n",
					r.Name,
					r.Start.Format("2006-01-02"),
					r.End.Format("2006-01-02"),
					FormatMoney(r.FinalValue),
					FormatPercent(r.TotalReturn),
					FormatPercent(r.MaxDrawdown))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)
			if err := app.Store.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			output.Success("run %s deleted", args[0])
			return nil
		},
	})

	return cmd
}

func newOrdersCmd(app *App) *cobra.Command {
	var filter store.OrderFilter

	cmd := &cobra.Command{
		Use:   "orders <run>",
		Short: "List the orders of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)

			run, err := app.Store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			orders, err := app.Store.GetOrders(cmd.Context(), run.ID, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(orders)
			}

			output.Header("%-12s %-5s %-10s %12s %10s %14s %-14s %-20s", "DATE", "TYPE", "TICKER", "QTY", "PRICE", "VALUE", "STATUS", "PURPOSE")
			for _, o := range orders {
				output.Printf("%-12s %-5s %-10s %12s %10.2f %14s %-14s %-20s\n",
					o.Date.Format("2006-01-02"),
					string(o.Type),
					o.Ticker,
					FormatQuantity(o.Quantity),
					o.Price,
					FormatMoney(o.Value),
					string(o.Status),
					o.Purpose)
			}
			output.Dim("%d orders", len(orders))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Ticker, "ticker", "", "filter by ticker")
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status (registered, completed, not-completed)")
	cmd.Flags().StringVar(&filter.Purpose, "purpose", "", "filter by purpose")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum rows")
	return cmd
}

func newAttributionCmd(app *App) *cobra.Command {
	var scope string
	var top int

	cmd := &cobra.Command{
		Use:   "attribution <run>",
		Short: "Show return attribution of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireStore(app); err != nil {
				return err
			}
			output := NewOutput(cmd)

			run, err := app.Store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			totals, err := app.Store.GetAttributionTotals(cmd.Context(), run.ID, scope)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(totals)
			}

			columns := make([]string, 0, len(totals))
			for c := range totals {
				columns = append(columns, c)
			}
			sort.Slice(columns, func(i, j int) bool { return totals[columns[i]] > totals[columns[j]] })
			if top > 0 && top < len(columns) {
				columns = columns[:top]
			}

			output.Header("%-24s %12s", "COLUMN", "CONTRIBUTION")
			for _, c := range columns {
				output.Printf("%-24s %12s\n", c, FormatPercent(totals[c]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", store.ScopePosition, "attribution scope (position, sector, book)")
	cmd.Flags().IntVar(&top, "top", 0, "show only the top N columns")
	return cmd
}

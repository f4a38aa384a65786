package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/models"
)

// SQLiteStore implements ResultStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ ResultStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates the results database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		start_cash REAL NOT NULL,
		final_value REAL NOT NULL,
		total_return REAL NOT NULL,
		annualized_return REAL NOT NULL,
		annualized_volatility REAL NOT NULL,
		sharpe_ratio REAL NOT NULL,
		max_drawdown REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		day INTEGER NOT NULL,
		date DATETIME NOT NULL,
		order_type TEXT NOT NULL,
		ticker TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		value REAL NOT NULL,
		commission REAL NOT NULL,
		cost REAL NOT NULL,
		status TEXT NOT NULL,
		purpose TEXT NOT NULL,
		message TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		day INTEGER NOT NULL,
		date DATETIME NOT NULL,
		expense_type TEXT NOT NULL,
		ticker TEXT,
		value REAL NOT NULL,
		purpose TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS daily_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		day INTEGER NOT NULL,
		date DATETIME NOT NULL,
		value REAL NOT NULL,
		cash_fund_value REAL NOT NULL,
		fee_provision REAL NOT NULL,
		long_value REAL NOT NULL,
		short_value REAL NOT NULL,
		long_count INTEGER NOT NULL,
		short_count INTEGER NOT NULL,
		net_exposure_pct REAL NOT NULL,
		gross_exposure_pct REAL NOT NULL,
		gross_leverage REAL NOT NULL,
		UNIQUE(run_id, day),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS attribution (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		scope TEXT NOT NULL,
		date DATETIME NOT NULL,
		column_name TEXT NOT NULL,
		value REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_orders_run ON orders(run_id);
	CREATE INDEX IF NOT EXISTS idx_orders_ticker ON orders(run_id, ticker);
	CREATE INDEX IF NOT EXISTS idx_expenses_run ON expenses(run_id);
	CREATE INDEX IF NOT EXISTS idx_daily_run ON daily_rows(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_attribution_run ON attribution(run_id, scope);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run header, replacing any run of the same name, and
// returns the new run id.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	if err := s.DeleteRun(ctx, run.Name); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (name, start_date, end_date, start_cash, final_value, total_return,
			annualized_return, annualized_volatility, sharpe_ratio, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Name, run.Start, run.End, run.StartCash, run.FinalValue, run.TotalReturn,
		run.AnnualizedReturn, run.AnnualizedVolatility, run.SharpeRatio, run.MaxDrawdown)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// GetRun retrieves a run header by name.
func (s *SQLiteStore) GetRun(ctx context.Context, name string) (*Run, error) {
	var run Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, start_cash, final_value, total_return,
			annualized_return, annualized_volatility, sharpe_ratio, max_drawdown, created_at
		FROM runs WHERE name = ?
	`, name).Scan(&run.ID, &run.Name, &run.Start, &run.End, &run.StartCash,
		&run.FinalValue, &run.TotalReturn, &run.AnnualizedReturn,
		&run.AnnualizedVolatility, &run.SharpeRatio, &run.MaxDrawdown, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDataError("run", name, "not found", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all run headers, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, start_cash, final_value, total_return,
			annualized_return, annualized_volatility, sharpe_ratio, max_drawdown, created_at
		FROM runs ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Name, &run.Start, &run.End, &run.StartCash,
			&run.FinalValue, &run.TotalReturn, &run.AnnualizedReturn,
			&run.AnnualizedVolatility, &run.SharpeRatio, &run.MaxDrawdown, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its dependent rows. Unknown names are a no-op.
func (s *SQLiteStore) DeleteRun(ctx context.Context, name string) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs WHERE name = ?`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"orders", "expenses", "daily_rows", "attribution"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

// SaveOrders saves a run's order history.
func (s *SQLiteStore) SaveOrders(ctx context.Context, runID int64, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (run_id, day, date, order_type, ticker, quantity,
			price, value, commission, cost, status, purpose, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		_, err := stmt.ExecContext(ctx, runID, o.Day, o.Date, string(o.Type), o.Ticker,
			o.Quantity, o.Price, o.Value, o.Commission, o.Cost, string(o.Status), o.Purpose, o.Message)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
	}
	return tx.Commit()
}

// GetOrders retrieves a run's orders, oldest first.
func (s *SQLiteStore) GetOrders(ctx context.Context, runID int64, filter OrderFilter) ([]models.Order, error) {
	query := `
		SELECT day, date, order_type, ticker, quantity, price, value, commission, cost, status, purpose, message
		FROM orders WHERE run_id = ?`
	args := []interface{}{runID}

	var conds []string
	if filter.Ticker != "" {
		conds = append(conds, "ticker = ?")
		args = append(args, filter.Ticker)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Purpose != "" {
		conds = append(conds, "purpose = ?")
		args = append(args, filter.Purpose)
	}
	if len(conds) > 0 {
		query += " AND " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY day ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		var typ, status string
		var message sql.NullString
		if err := rows.Scan(&o.Day, &o.Date, &typ, &o.Ticker, &o.Quantity,
			&o.Price, &o.Value, &o.Commission, &o.Cost, &status, &o.Purpose, &message); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Type = models.OrderType(typ)
		o.Status = models.OrderStatus(status)
		o.Message = message.String
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SaveExpenses saves a run's expense history.
func (s *SQLiteStore) SaveExpenses(ctx context.Context, runID int64, expenses []models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (run_id, day, date, expense_type, ticker, value, purpose)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range expenses {
		_, err := stmt.ExecContext(ctx, runID, e.Day, e.Date, string(e.Type), e.Ticker, e.Value, e.Purpose)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
	}
	return tx.Commit()
}

// GetExpenses retrieves a run's expenses, oldest first.
func (s *SQLiteStore) GetExpenses(ctx context.Context, runID int64, filter ExpenseFilter) ([]models.Expense, error) {
	query := `
		SELECT day, date, expense_type, ticker, value, purpose
		FROM expenses WHERE run_id = ?`
	args := []interface{}{runID}

	if filter.Type != "" {
		query += " AND expense_type = ?"
		args = append(args, filter.Type)
	}
	if filter.Ticker != "" {
		query += " AND ticker = ?"
		args = append(args, filter.Ticker)
	}
	query += " ORDER BY day ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		var typ string
		var ticker, purpose sql.NullString
		if err := rows.Scan(&e.Day, &e.Date, &typ, &ticker, &e.Value, &purpose); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Type = models.ExpenseType(typ)
		e.Ticker = ticker.String
		e.Purpose = purpose.String
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// SaveDailyRows saves a run's per-day summary series.
func (s *SQLiteStore) SaveDailyRows(ctx context.Context, runID int64, dailyRows []DailyRow) error {
	if len(dailyRows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO daily_rows (run_id, day, date, value, cash_fund_value,
			fee_provision, long_value, short_value, long_count, short_count,
			net_exposure_pct, gross_exposure_pct, gross_leverage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range dailyRows {
		_, err := stmt.ExecContext(ctx, runID, r.Day, r.Date, r.Value, r.CashFundValue,
			r.FeeProvision, r.LongValue, r.ShortValue, r.LongCount, r.ShortCount,
			r.NetExposurePct, r.GrossExposurePct, r.GrossLeverage)
		if err != nil {
			return fmt.Errorf("failed to insert daily row: %w", err)
		}
	}
	return tx.Commit()
}

// GetDailyRows retrieves a run's per-day summary series, oldest first.
func (s *SQLiteStore) GetDailyRows(ctx context.Context, runID int64) ([]DailyRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, date, value, cash_fund_value, fee_provision, long_value, short_value,
			long_count, short_count, net_exposure_pct, gross_exposure_pct, gross_leverage
		FROM daily_rows WHERE run_id = ? ORDER BY day ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily rows: %w", err)
	}
	defer rows.Close()

	var out []DailyRow
	for rows.Next() {
		var r DailyRow
		if err := rows.Scan(&r.Day, &r.Date, &r.Value, &r.CashFundValue, &r.FeeProvision,
			&r.LongValue, &r.ShortValue, &r.LongCount, &r.ShortCount,
			&r.NetExposurePct, &r.GrossExposurePct, &r.GrossLeverage); err != nil {
			return nil, fmt.Errorf("failed to scan daily row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveAttribution saves one scope of a run's attribution matrix.
func (s *SQLiteStore) SaveAttribution(ctx context.Context, runID int64, scope string, rows []AttributionRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attribution (run_id, scope, date, column_name, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, scope, r.Date, r.Column, r.Value); err != nil {
			return fmt.Errorf("failed to insert attribution row: %w", err)
		}
	}
	return tx.Commit()
}

// GetAttributionTotals sums one scope's contributions per column.
func (s *SQLiteStore) GetAttributionTotals(ctx context.Context, runID int64, scope string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT column_name, SUM(value) FROM attribution
		WHERE run_id = ? AND scope = ? GROUP BY column_name
	`, runID, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var column string
		var total float64
		if err := rows.Scan(&column, &total); err != nil {
			return nil, fmt.Errorf("failed to scan attribution total: %w", err)
		}
		totals[column] = total
	}
	return totals, rows.Err()
}

package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "portfolio-backtest/internal/errors"
)

// LoadPriceTable reads a wide CSV: first column a YYYY-MM-DD date, one
// column per ticker. Empty cells stay missing.
func LoadPriceTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("table", path, "open", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewDataError("table", path, "parse", err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, apperrors.NewDataError("table", path, "no data rows", nil)
	}

	tickers := records[0][1:]
	dates := make([]time.Time, 0, len(records)-1)
	for _, row := range records[1:] {
		d, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, apperrors.NewDataError("table", path, fmt.Sprintf("invalid date %q", row[0]), err)
		}
		dates = append(dates, d)
	}

	table := NewTable(dates, tickers)
	for i, row := range records[1:] {
		for j, cell := range row[1:] {
			if cell == "" || j >= len(tickers) {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, apperrors.NewDataError("table", path,
					fmt.Sprintf("invalid value %q at %s/%s", cell, row[0], tickers[j]), err)
			}
			table.Set(dates[i], tickers[j], v)
		}
	}
	return table, nil
}

type seriesRow struct {
	Date  string  `csv:"date"`
	Value float64 `csv:"value"`
}

// LoadSeriesCSV reads a two-column CSV (date,value) into a Series.
func LoadSeriesCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("series", path, "open", err)
	}
	defer f.Close()

	var rows []seriesRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, apperrors.NewDataError("series", path, "parse", err)
	}

	dates := make([]time.Time, 0, len(rows))
	vals := make([]float64, 0, len(rows))
	for _, row := range rows {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, apperrors.NewDataError("series", path, fmt.Sprintf("invalid date %q", row.Date), err)
		}
		dates = append(dates, d)
		vals = append(vals, row.Value)
	}
	return NewSeries(dates, vals), nil
}

type sectorRow struct {
	Ticker string `csv:"ticker"`
	Sector string `csv:"sector"`
}

// LoadSectors reads a (ticker,sector) CSV into a SectorMap.
func LoadSectors(path string) (SectorMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDataError("sectors", path, "open", err)
	}
	defer f.Close()

	var rows []sectorRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, apperrors.NewDataError("sectors", path, "parse", err)
	}

	m := make(SectorMap, len(rows))
	for _, row := range rows {
		if row.Ticker == "" {
			continue
		}
		m[row.Ticker] = row.Sector
	}
	return m, nil
}

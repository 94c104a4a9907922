// Package export derives per-category snapshot files from an
// in-memory batch. Each run produces a fresh snapshot set; nothing is
// read back from the store.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dgallion1/finfacts/internal/facts"
)

type category struct {
	name   string
	fields []string
	row    func(facts.FactSet) []float64
}

var categories = []category{
	{
		name:   "income_statements",
		fields: []string{"revenue", "operating_income", "net_income"},
		row: func(s facts.FactSet) []float64 {
			return []float64{s.IncomeStatement.Revenue, s.IncomeStatement.OperatingIncome, s.IncomeStatement.NetIncome}
		},
	},
	{
		name:   "balance_sheets",
		fields: []string{"total_assets", "total_liabilities", "total_equity"},
		row: func(s facts.FactSet) []float64 {
			return []float64{s.BalanceSheet.TotalAssets, s.BalanceSheet.TotalLiabilities, s.BalanceSheet.TotalEquity}
		},
	},
	{
		name:   "cash_flows",
		fields: []string{"operating_cash_flow", "investing_cash_flow", "financing_cash_flow"},
		row: func(s facts.FactSet) []float64 {
			return []float64{s.CashFlow.OperatingCashFlow, s.CashFlow.InvestingCashFlow, s.CashFlow.FinancingCashFlow}
		},
	},
}

// WriteSnapshots writes one timestamped snapshot file per statement
// category under dir, derived purely from batch. Content is
// deterministic for a fixed batch and timestamp. An empty batch
// produces no files.
func WriteSnapshots(batch *facts.Batch, dir string, ts time.Time) ([]string, error) {
	if batch.Len() == 0 {
		return nil, nil
	}
	stamp := ts.Format("20060102_150405")

	var paths []string
	for _, cat := range categories {
		catDir := filepath.Join(dir, cat.name)
		if err := os.MkdirAll(catDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", catDir, err)
		}
		path := filepath.Join(catDir, fmt.Sprintf("%s_%s.csv", cat.name, stamp))
		if err := writeCategory(path, cat, batch); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCategory(path string, cat category, batch *facts.Batch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"company", "fiscal_year"}, cat.fields...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, entry := range batch.Entries() {
		record := []string{
			entry.Set.DocumentInfo.CompanyName,
			entry.Set.DocumentInfo.FiscalYear,
		}
		for _, v := range cat.row(entry.Set) {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return f.Close()
}

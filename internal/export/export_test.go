package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/finfacts/internal/facts"
)

func sampleBatch() *facts.Batch {
	batch := facts.NewBatch()
	batch.Add("a.html", facts.FactSet{
		DocumentInfo:    facts.DocumentInfo{CompanyName: "Acme", FiscalYear: "2020", DocumentType: "10-K"},
		IncomeStatement: facts.IncomeStatement{Revenue: 100, OperatingIncome: 20, NetIncome: 10},
		BalanceSheet:    facts.BalanceSheet{TotalAssets: 400, TotalLiabilities: 200, TotalEquity: 200},
		CashFlow:        facts.CashFlow{OperatingCashFlow: 30, InvestingCashFlow: -10, FinancingCashFlow: -5},
	})
	batch.Add("b.html", facts.FactSet{
		DocumentInfo:    facts.DocumentInfo{CompanyName: "Acme", FiscalYear: "2021", DocumentType: "10-K"},
		IncomeStatement: facts.IncomeStatement{Revenue: 120.5, OperatingIncome: 24, NetIncome: 12},
		BalanceSheet:    facts.BalanceSheet{TotalAssets: 480, TotalLiabilities: 240, TotalEquity: 240},
		CashFlow:        facts.CashFlow{OperatingCashFlow: 36, InvestingCashFlow: -12, FinancingCashFlow: -6},
	})
	return batch
}

func TestWriteSnapshots(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	paths, err := WriteSnapshots(sampleBatch(), dir, ts)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	want := []string{
		filepath.Join(dir, "income_statements", "income_statements_20240315_103000.csv"),
		filepath.Join(dir, "balance_sheets", "balance_sheets_20240315_103000.csv"),
		filepath.Join(dir, "cash_flows", "cash_flows_20240315_103000.csv"),
	}
	assert.Equal(t, want, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t,
		"company,fiscal_year,revenue,operating_income,net_income\n"+
			"Acme,2020,100,20,10\n"+
			"Acme,2021,120.5,24,12\n",
		string(data),
	)
}

func TestWriteSnapshots_Deterministic(t *testing.T) {
	ts := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	dir1 := t.TempDir()
	paths1, err := WriteSnapshots(sampleBatch(), dir1, ts)
	require.NoError(t, err)

	dir2 := t.TempDir()
	paths2, err := WriteSnapshots(sampleBatch(), dir2, ts)
	require.NoError(t, err)

	for i := range paths1 {
		d1, err := os.ReadFile(paths1[i])
		require.NoError(t, err)
		d2, err := os.ReadFile(paths2[i])
		require.NoError(t, err)
		assert.Equal(t, string(d1), string(d2))
	}
}

func TestWriteSnapshots_EmptyBatch(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteSnapshots(facts.NewBatch(), dir, time.Now())
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteSnapshots_NegativeValues(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	paths, err := WriteSnapshots(sampleBatch(), dir, ts)
	require.NoError(t, err)

	data, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(data), "-10")
	assert.Contains(t, string(data), "-5")
}

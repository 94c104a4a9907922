package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/finfacts/internal/facts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func factSet(company, year string, revenue float64) facts.FactSet {
	return facts.FactSet{
		DocumentInfo: facts.DocumentInfo{
			CompanyName:  company,
			FiscalYear:   year,
			DocumentType: "10-K",
		},
		IncomeStatement: facts.IncomeStatement{
			Revenue:         revenue,
			OperatingIncome: revenue * 0.2,
			NetIncome:       revenue * 0.1,
		},
		BalanceSheet: facts.BalanceSheet{
			TotalAssets:      revenue * 4,
			TotalLiabilities: revenue * 2,
			TotalEquity:      revenue * 2,
		},
		CashFlow: facts.CashFlow{
			OperatingCashFlow: revenue * 0.3,
			InvestingCashFlow: -revenue * 0.1,
			FinancingCashFlow: -revenue * 0.05,
		},
	}
}

func TestInit_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
}

func TestReset_DropsExistingData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := facts.NewBatch()
	batch.Add("doc.html", factSet("Acme", "2021", 100))
	report := s.SaveBatch(ctx, batch, nil)
	require.True(t, report.Ok())

	require.NoError(t, s.Reset())

	n, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveBatch_AllCommitted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := facts.NewBatch()
	batch.Add("a.html", factSet("Acme", "2020", 100))
	batch.Add("b.html", factSet("Acme", "2021", 120))
	batch.Add("c.html", factSet("Acme", "2022", 150))

	report := s.SaveBatch(ctx, batch, nil)
	require.True(t, report.Ok())
	assert.Equal(t, []string{"a.html", "b.html", "c.html"}, report.Saved)

	n, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Each category table carries one row per document.
	for _, table := range []string{"income_statements", "balance_sheets", "cash_flows"} {
		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 3, count, table)
	}
}

func TestSaveBatch_FailedDocumentRolledBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Empty company name violates the documents CHECK constraint, so
	// the middle document must fail while its neighbors commit.
	batch := facts.NewBatch()
	batch.Add("good1.html", factSet("Acme", "2020", 100))
	batch.Add("bad.html", factSet("", "2021", 120))
	batch.Add("good2.html", factSet("Acme", "2022", 150))

	report := s.SaveBatch(ctx, batch, nil)
	assert.False(t, report.Ok())
	assert.Equal(t, []string{"good1.html", "good2.html"}, report.Saved)
	require.Contains(t, report.Failed, "bad.html")

	n, err := s.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// No partial rows from the failed document in any table.
	for _, table := range []string{"income_statements", "balance_sheets", "cash_flows"} {
		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Equal(t, 2, count, table)
	}
}

func TestSaveBatch_ValuesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	set := factSet("Acme", "2021", 1234.56)
	batch := facts.NewBatch()
	batch.Add("doc.html", set)
	require.True(t, s.SaveBatch(ctx, batch, nil).Ok())

	var company, year, docType string
	var revenue, assets, ocf float64
	err := s.db.QueryRow(`
		SELECT d.company_name, d.fiscal_year, d.document_type,
		       i.revenue, b.total_assets, c.operating_cash_flow
		FROM documents d
		JOIN income_statements i ON i.document_id = d.id
		JOIN balance_sheets b ON b.document_id = d.id
		JOIN cash_flows c ON c.document_id = d.id`,
	).Scan(&company, &year, &docType, &revenue, &assets, &ocf)
	require.NoError(t, err)

	assert.Equal(t, "Acme", company)
	assert.Equal(t, "2021", year)
	assert.Equal(t, "10-K", docType)
	assert.InDelta(t, 1234.56, revenue, 1e-9)
	assert.InDelta(t, set.BalanceSheet.TotalAssets, assets, 1e-9)
	assert.InDelta(t, set.CashFlow.OperatingCashFlow, ocf, 1e-9)
}

func TestSaveBatch_EmptyBatch(t *testing.T) {
	s := newTestStore(t)
	report := s.SaveBatch(context.Background(), facts.NewBatch(), nil)
	assert.True(t, report.Ok())
	assert.Empty(t, report.Saved)
}

func TestOpen_CreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Init())
}

package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/document"
	"github.com/dgallion1/finfacts/internal/extract"
	"github.com/dgallion1/finfacts/internal/facts"
	"github.com/dgallion1/finfacts/internal/store"
)

// fakeExtractor returns a scripted fact set per document name.
type fakeExtractor struct {
	sets     map[string]facts.FactSet
	outcomes map[string]extract.Outcome
}

func (f *fakeExtractor) Extract(ctx context.Context, doc *document.Document) (facts.FactSet, extract.Outcome) {
	if set, ok := f.sets[doc.Name]; ok {
		return set, f.outcomes[doc.Name]
	}
	return facts.Default(), extract.Outcome{Fallback: true, Reason: "unscripted"}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		DatabasePath: filepath.Join(dir, "gold", "financial_data.db"),
		OutputDir:    filepath.Join(dir, "gold"),
		ReportPath:   filepath.Join(dir, "output.txt"),
	}
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func yearSet(company, year string, revenue float64) facts.FactSet {
	return facts.FactSet{
		DocumentInfo:    facts.DocumentInfo{CompanyName: company, FiscalYear: year, DocumentType: "10-K"},
		IncomeStatement: facts.IncomeStatement{Revenue: revenue, NetIncome: revenue * 0.1},
		BalanceSheet:    facts.BalanceSheet{TotalAssets: revenue * 4, TotalLiabilities: revenue * 2, TotalEquity: revenue * 2},
		CashFlow:        facts.CashFlow{OperatingCashFlow: revenue * 0.3},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	inputDir := t.TempDir()
	p1 := writeInput(t, inputDir, "fy2020.txt", "filing for 2020")
	p2 := writeInput(t, inputDir, "fy2021.txt", "filing for 2021")

	ext := &fakeExtractor{
		sets: map[string]facts.FactSet{
			"fy2020.txt": yearSet("Acme", "2020", 100),
			"fy2021.txt": yearSet("Acme", "2021", 120),
		},
		outcomes: map[string]extract.Outcome{},
	}

	runner := NewRunner(cfg, ext, nil)
	result, err := runner.Run(context.Background(), InputsFromPaths([]string{p1, p2}))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Persisted)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, DocExtracted, result.Documents[0].Status)
	assert.Equal(t, "2020", result.Documents[0].FiscalYear)
	assert.Len(t, result.Snapshots, 3)

	// The results artifact holds both fact sets keyed by label.
	data, err := os.ReadFile(result.ResultsPath)
	require.NoError(t, err)
	var decoded map[string]facts.FactSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Acme", decoded["fy2020.txt"].DocumentInfo.CompanyName)

	// The analytics report covers the persisted years.
	report, err := os.ReadFile(result.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Financial Analysis Report")
	assert.Contains(t, string(report), "20.00")

	// Database is queryable after the run.
	st, err := store.Open(cfg.DatabasePath)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRun_FallbackDocumentStillPersisted(t *testing.T) {
	cfg := testConfig(t)
	inputDir := t.TempDir()
	path := writeInput(t, inputDir, "broken.txt", "unreadable gibberish")

	ext := &fakeExtractor{
		sets: map[string]facts.FactSet{"broken.txt": facts.Default()},
		outcomes: map[string]extract.Outcome{
			"broken.txt": {Fallback: true, Reason: "parse: bad payload"},
		},
	}

	runner := NewRunner(cfg, ext, nil)
	result, err := runner.Run(context.Background(), InputsFromPaths([]string{path}))
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, DocFallback, result.Documents[0].Status)
	assert.Equal(t, "2023", result.Documents[0].FiscalYear)
	assert.Equal(t, 1, result.Persisted)

	// The fallback record lands in the store like any other.
	st, err := store.Open(cfg.DatabasePath)
	require.NoError(t, err)
	defer st.Close()

	var company string
	var revenue float64
	err = st.DB().QueryRow(`
		SELECT d.company_name, i.revenue
		FROM documents d JOIN income_statements i ON i.document_id = d.id`,
	).Scan(&company, &revenue)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", company)
	assert.Zero(t, revenue)
}

func TestRun_UnreadableInputIsFatal(t *testing.T) {
	cfg := testConfig(t)
	ext := &fakeExtractor{}

	runner := NewRunner(cfg, ext, nil)
	_, err := runner.Run(context.Background(), InputsFromPaths([]string{
		filepath.Join(t.TempDir(), "missing.txt"),
	}))
	require.Error(t, err)

	// Nothing was persisted.
	_, statErr := os.Stat(cfg.DatabasePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_HTMLTagScanCounted(t *testing.T) {
	cfg := testConfig(t)
	inputDir := t.TempDir()
	markup := `<html><body>
		<p>Annual report</p>
		<ix:nonfraction name="us-gaap:Revenues" unitref="usd" decimals="-6">1,000</ix:nonfraction>
		<ix:nonnumeric name="dei:EntityRegistrantName">Acme</ix:nonnumeric>
	</body></html>`
	path := writeInput(t, inputDir, "filing.html", markup)

	ext := &fakeExtractor{
		sets:     map[string]facts.FactSet{"filing.html": yearSet("Acme", "2021", 100)},
		outcomes: map[string]extract.Outcome{},
	}

	runner := NewRunner(cfg, ext, nil)
	result, err := runner.Run(context.Background(), InputsFromPaths([]string{path}))
	require.NoError(t, err)

	require.Len(t, result.Documents, 1)
	assert.Equal(t, 2, result.Documents[0].TagFacts)
}

func TestRun_PersistFailureIsolated(t *testing.T) {
	cfg := testConfig(t)
	inputDir := t.TempDir()
	good := writeInput(t, inputDir, "good.txt", "fine")
	bad := writeInput(t, inputDir, "bad.txt", "fine too")

	// An empty company name violates the schema, failing persistence
	// for that document only.
	badSet := yearSet("", "2021", 100)
	ext := &fakeExtractor{
		sets: map[string]facts.FactSet{
			"good.txt": yearSet("Acme", "2020", 100),
			"bad.txt":  badSet,
		},
		outcomes: map[string]extract.Outcome{},
	}

	runner := NewRunner(cfg, ext, nil)
	result, err := runner.Run(context.Background(), InputsFromPaths([]string{good, bad}))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Persisted)
	require.Len(t, result.Documents, 2)
	assert.Equal(t, DocExtracted, result.Documents[0].Status)
	assert.Equal(t, DocFailed, result.Documents[1].Status)
	assert.NotEmpty(t, result.Documents[1].Error)

	// The failed document still appears in the results artifact.
	data, err := os.ReadFile(result.ResultsPath)
	require.NoError(t, err)
	var decoded map[string]facts.FactSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "bad.txt")
}

func TestRunWithProgress_PhaseOrder(t *testing.T) {
	cfg := testConfig(t)
	inputDir := t.TempDir()
	p1 := writeInput(t, inputDir, "a.txt", "one")
	p2 := writeInput(t, inputDir, "b.txt", "two")

	ext := &fakeExtractor{
		sets: map[string]facts.FactSet{
			"a.txt": yearSet("Acme", "2020", 100),
			"b.txt": yearSet("Acme", "2021", 120),
		},
		outcomes: map[string]extract.Outcome{},
	}

	var phases []Status
	runner := NewRunner(cfg, ext, nil)
	_, err := runner.RunWithProgress(context.Background(), InputsFromPaths([]string{p1, p2}), func(s Status) {
		phases = append(phases, s)
	})
	require.NoError(t, err)

	want := []Status{
		StatusReading, StatusExtracting,
		StatusReading, StatusExtracting,
		StatusPersisting, StatusExporting, StatusAnalyzing,
	}
	assert.Equal(t, want, phases)
}

func TestInputsFromPaths(t *testing.T) {
	inputs := InputsFromPaths([]string{"/data/filings/a.html", "b.txt"})
	require.Len(t, inputs, 2)
	assert.Equal(t, "a.html", inputs[0].Name)
	assert.Equal(t, "/data/filings/a.html", inputs[0].Path)
	assert.Equal(t, "b.txt", inputs[1].Name)
}

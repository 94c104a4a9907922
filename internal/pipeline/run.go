// Package pipeline drives the end-to-end extraction run: read each
// document, scan inline tags, extract facts, then persist, export and
// analyze the accumulated batch.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/finfacts/internal/analytics"
	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/document"
	"github.com/dgallion1/finfacts/internal/export"
	"github.com/dgallion1/finfacts/internal/extract"
	"github.com/dgallion1/finfacts/internal/facts"
	"github.com/dgallion1/finfacts/internal/store"
	"github.com/dgallion1/finfacts/internal/xbrl"
)

// Extractor produces a canonical fact set for one document. The
// orchestrator in internal/extract is the production implementation.
type Extractor interface {
	Extract(ctx context.Context, doc *document.Document) (facts.FactSet, extract.Outcome)
}

// Input is one document to process. Data may be nil, in which case it
// is read from Path.
type Input struct {
	Name string
	Path string
	Data []byte
}

// InputsFromPaths builds inputs for a list of file paths.
func InputsFromPaths(paths []string) []Input {
	inputs := make([]Input, 0, len(paths))
	for _, p := range paths {
		inputs = append(inputs, Input{Name: filepath.Base(p), Path: p})
	}
	return inputs
}

// Per-document terminal states for the run summary.
const (
	DocExtracted = "extracted"
	DocFallback  = "fallback"
	DocFailed    = "failed"
)

// DocumentStatus reports how one document fared.
type DocumentStatus struct {
	Label      string `json:"label"`
	Status     string `json:"status"`
	FiscalYear string `json:"fiscal_year,omitempty"`
	TagFacts   int    `json:"tag_facts"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of a full pipeline run.
type Result struct {
	Documents   []DocumentStatus `json:"documents"`
	Persisted   int              `json:"persisted"`
	Snapshots   []string         `json:"snapshots"`
	ResultsPath string           `json:"results_path"`
	ReportPath  string           `json:"report_path"`

	// Batch holds the in-memory fact sets, including documents whose
	// persistence failed.
	Batch *facts.Batch `json:"-"`
}

// Runner wires the pipeline stages together.
type Runner struct {
	cfg       config.Config
	reader    *document.Reader
	scanner   *xbrl.Scanner
	extractor Extractor
	log       *slog.Logger
}

func NewRunner(cfg config.Config, extractor Extractor, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:       cfg,
		reader:    &document.Reader{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		scanner:   xbrl.NewScanner(log),
		extractor: extractor,
		log:       log,
	}
}

// Run processes inputs strictly sequentially, then persists the batch
// per-document atomically, exports snapshots, writes the debug
// artifact and renders the analytics report. Unreadable input aborts
// the run; extraction failures degrade to the fallback record;
// persistence failures are isolated per document. Analytics failures
// are fatal but leave persisted data in place.
func (r *Runner) Run(ctx context.Context, inputs []Input) (*Result, error) {
	return r.RunWithProgress(ctx, inputs, nil)
}

// RunWithProgress is Run with a phase notification hook, used by serve
// mode to surface run progress. progress may be nil.
func (r *Runner) RunWithProgress(ctx context.Context, inputs []Input, progress func(Status)) (*Result, error) {
	notify := func(s Status) {
		if progress != nil {
			progress(s)
		}
	}
	result := &Result{Batch: facts.NewBatch()}

	for _, in := range inputs {
		notify(StatusReading)
		doc, err := r.readInput(in)
		if err != nil {
			// Input errors are fatal to the whole run.
			return nil, err
		}
		r.log.Info("processing document", "document", doc.Name)

		status := DocumentStatus{Label: doc.Name}

		if doc.IsHTML {
			tagFacts, err := r.scanner.Scan(bytes.NewReader(doc.Raw))
			if err != nil {
				// The tag scan is auxiliary; a markup failure does not
				// block extraction.
				r.log.Warn("tag scan failed", "document", doc.Name, "error", err)
			}
			status.TagFacts = len(tagFacts)
			r.log.Info("tag scan complete", "document", doc.Name, "tag_facts", len(tagFacts))
		}

		notify(StatusExtracting)
		set, outcome := r.extractor.Extract(ctx, doc)
		if outcome.Fallback {
			status.Status = DocFallback
			status.Error = outcome.Reason
		} else {
			status.Status = DocExtracted
		}
		status.FiscalYear = set.DocumentInfo.FiscalYear

		result.Batch.Add(doc.Name, set)
		result.Documents = append(result.Documents, status)
	}

	notify(StatusPersisting)
	report, err := r.persist(ctx, result.Batch)
	if err != nil {
		return nil, err
	}
	result.Persisted = len(report.Saved)
	for i := range result.Documents {
		if perr, ok := report.Failed[result.Documents[i].Label]; ok {
			result.Documents[i].Status = DocFailed
			result.Documents[i].Error = perr.Error()
		}
	}

	notify(StatusExporting)
	ts := time.Now()
	snapshots, err := export.WriteSnapshots(result.Batch, r.cfg.OutputDir, ts)
	if err != nil {
		return nil, fmt.Errorf("export snapshots: %w", err)
	}
	result.Snapshots = snapshots

	resultsPath, err := r.writeResults(result.Batch)
	if err != nil {
		return nil, err
	}
	result.ResultsPath = resultsPath

	notify(StatusAnalyzing)
	reportPath, err := r.analyze(ctx)
	if err != nil {
		return nil, err
	}
	result.ReportPath = reportPath

	return result, nil
}

func (r *Runner) readInput(in Input) (*document.Document, error) {
	if in.Data != nil {
		return r.reader.ReadBytes(in.Name, in.Data)
	}
	return r.reader.Read(in.Path)
}

// persist opens the store for the write phase, recreates the schema
// and saves the batch.
func (r *Runner) persist(ctx context.Context, batch *facts.Batch) (*store.Report, error) {
	if dir := filepath.Dir(r.cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	st, err := store.Open(r.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Reset(); err != nil {
		return nil, err
	}
	report := st.SaveBatch(ctx, batch, r.log)
	r.log.Info("persistence complete", "saved", len(report.Saved), "failed", len(report.Failed))
	return report, nil
}

// writeResults dumps the full batch as one JSON document keyed by
// label, for debugging.
func (r *Runner) writeResults(batch *facts.Batch) (string, error) {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(r.cfg.OutputDir, "financial_data_results.json")
	data, err := json.MarshalIndent(batch, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}

// analyze opens the store for the read phase and writes the report
// artifact.
func (r *Runner) analyze(ctx context.Context) (string, error) {
	st, err := store.Open(r.cfg.DatabasePath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	text, err := analytics.NewEngine(st).Report(ctx)
	if err != nil {
		return "", fmt.Errorf("analytics: %w", err)
	}
	if err := os.WriteFile(r.cfg.ReportPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return r.cfg.ReportPath, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dgallion1/finfacts/internal/facts"
)

// Report summarizes a batch write: which documents committed and
// which failed, keyed by document label.
type Report struct {
	Saved  []string
	Failed map[string]error
}

// Ok reports whether every document in the batch committed.
func (r *Report) Ok() bool {
	return len(r.Failed) == 0
}

// SaveBatch writes each document's fact set as one atomic unit across
// the four tables, in batch order. A failure rolls back only the
// offending document; the batch continues. After SaveBatch returns,
// no document is partially written.
func (s *Store) SaveBatch(ctx context.Context, batch *facts.Batch, log *slog.Logger) *Report {
	if log == nil {
		log = slog.Default()
	}
	report := &Report{Failed: make(map[string]error)}

	for _, entry := range batch.Entries() {
		if err := s.saveOne(ctx, entry.Set); err != nil {
			log.Error("persist failed, document rolled back", "document", entry.Label, "error", err)
			report.Failed[entry.Label] = err
			continue
		}
		report.Saved = append(report.Saved, entry.Label)
	}
	return report
}

func (s *Store) saveOne(ctx context.Context, set facts.FactSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	docID, err := insertDocument(ctx, tx, set.DocumentInfo)
	if err != nil {
		return err
	}

	is := set.IncomeStatement
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO income_statements (document_id, revenue, operating_income, net_income)
		 VALUES (?, ?, ?, ?)`,
		docID, is.Revenue, is.OperatingIncome, is.NetIncome); err != nil {
		return fmt.Errorf("insert income statement: %w", err)
	}

	bs := set.BalanceSheet
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO balance_sheets (document_id, total_assets, total_liabilities, total_equity)
		 VALUES (?, ?, ?, ?)`,
		docID, bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity); err != nil {
		return fmt.Errorf("insert balance sheet: %w", err)
	}

	cf := set.CashFlow
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cash_flows (document_id, operating_cash_flow, investing_cash_flow, financing_cash_flow)
		 VALUES (?, ?, ?, ?)`,
		docID, cf.OperatingCashFlow, cf.InvestingCashFlow, cf.FinancingCashFlow); err != nil {
		return fmt.Errorf("insert cash flow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document: %w", err)
	}
	return nil
}

func insertDocument(ctx context.Context, tx *sql.Tx, info facts.DocumentInfo) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (company_name, fiscal_year, document_type) VALUES (?, ?, ?)`,
		info.CompanyName, info.FiscalYear, info.DocumentType)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("document id: %w", err)
	}
	return id, nil
}

// CountDocuments returns the number of committed document records.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

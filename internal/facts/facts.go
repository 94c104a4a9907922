// Package facts defines the canonical financial fact set that every
// extraction path must produce: document info plus one record per
// statement category, all amounts in millions of USD.
package facts

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DocumentInfo identifies the filing a fact set was extracted from.
type DocumentInfo struct {
	CompanyName  string `json:"company_name"`
	FiscalYear   string `json:"fiscal_year"`
	DocumentType string `json:"document_type"`
}

// IncomeStatement holds the income statement metrics.
type IncomeStatement struct {
	Revenue         float64 `json:"revenue"`
	OperatingIncome float64 `json:"operating_income"`
	NetIncome       float64 `json:"net_income"`
}

// BalanceSheet holds the balance sheet metrics.
type BalanceSheet struct {
	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
}

// CashFlow holds the cash flow statement metrics.
type CashFlow struct {
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	InvestingCashFlow float64 `json:"investing_cash_flow"`
	FinancingCashFlow float64 `json:"financing_cash_flow"`
}

// FactSet is the canonical four-group record.
type FactSet struct {
	DocumentInfo    DocumentInfo    `json:"document_info"`
	IncomeStatement IncomeStatement `json:"income_statement"`
	BalanceSheet    BalanceSheet    `json:"balance_sheet"`
	CashFlow        CashFlow        `json:"cash_flow"`
}

// Default returns the fallback record substituted whenever extraction
// cannot be parsed into the canonical schema. Every metric is zero.
func Default() FactSet {
	return FactSet{
		DocumentInfo: DocumentInfo{
			CompanyName:  "Unknown",
			FiscalYear:   "2023",
			DocumentType: "10-K",
		},
	}
}

// rawFactSet mirrors FactSet with pointer groups so that an absent
// group can be told apart from a present-but-zero one.
type rawFactSet struct {
	DocumentInfo    *DocumentInfo    `json:"document_info"`
	IncomeStatement *IncomeStatement `json:"income_statement"`
	BalanceSheet    *BalanceSheet    `json:"balance_sheet"`
	CashFlow        *CashFlow        `json:"cash_flow"`
}

// Parse decodes a canonical extraction payload. The field set is
// closed: unknown fields anywhere in the payload are an error, as is
// any type mismatch. A missing group is not an error; Normalize fills
// it with its default.
func Parse(data []byte) (FactSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw rawFactSet
	if err := dec.Decode(&raw); err != nil {
		return FactSet{}, fmt.Errorf("decode fact set: %w", err)
	}
	// Reject trailing garbage after the JSON object.
	if dec.More() {
		return FactSet{}, fmt.Errorf("decode fact set: trailing data after payload")
	}
	return normalize(raw), nil
}

// normalize maps a raw payload into the canonical record, substituting
// the zero-filled default for each absent group. Present groups pass
// through untouched; no unit conversion is performed.
func normalize(raw rawFactSet) FactSet {
	def := Default()
	fs := FactSet{
		DocumentInfo: def.DocumentInfo,
	}
	if raw.DocumentInfo != nil {
		fs.DocumentInfo = *raw.DocumentInfo
	}
	if raw.IncomeStatement != nil {
		fs.IncomeStatement = *raw.IncomeStatement
	}
	if raw.BalanceSheet != nil {
		fs.BalanceSheet = *raw.BalanceSheet
	}
	if raw.CashFlow != nil {
		fs.CashFlow = *raw.CashFlow
	}
	return fs
}

// Package analytics runs the fixed time-series query battery over
// persisted facts and renders a text report.
package analytics

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dgallion1/finfacts/internal/store"
)

// Engine executes analysis queries against a populated store.
type Engine struct {
	store *store.Store
}

func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

type section struct {
	title string
	query string
}

// Queries are ordered by fiscal_year, which is TEXT: ordering is
// lexicographic, not numeric. Zero denominators are turned into NULL
// via NULLIF and rendered as n/a rather than failing the phase.
var sections = []section{
	{
		title: "1. Year-over-Year Revenue Growth",
		query: `
			WITH revenue_data AS (
				SELECT
					d.fiscal_year,
					i.revenue,
					LAG(i.revenue) OVER (ORDER BY d.fiscal_year) AS prev_revenue
				FROM documents d
				JOIN income_statements i ON d.id = i.document_id
			)
			SELECT
				fiscal_year,
				ROUND(((revenue - prev_revenue) / NULLIF(prev_revenue, 0) * 100), 2) AS revenue_growth_percent
			FROM revenue_data
			WHERE prev_revenue IS NOT NULL
			ORDER BY fiscal_year`,
	},
	{
		title: "2. Net Margin by Year",
		query: `
			SELECT
				d.fiscal_year,
				ROUND((i.net_income / NULLIF(i.revenue, 0) * 100), 2) AS net_margin_percent
			FROM documents d
			JOIN income_statements i ON d.id = i.document_id
			ORDER BY d.fiscal_year`,
	},
	{
		title: "3. Assets vs Liabilities YoY Change",
		query: `
			WITH balance_data AS (
				SELECT
					d.fiscal_year,
					b.total_assets,
					b.total_liabilities,
					LAG(b.total_assets) OVER (ORDER BY d.fiscal_year) AS prev_assets,
					LAG(b.total_liabilities) OVER (ORDER BY d.fiscal_year) AS prev_liabilities
				FROM documents d
				JOIN balance_sheets b ON d.id = b.document_id
			)
			SELECT
				fiscal_year,
				ROUND(((total_assets - prev_assets) / NULLIF(prev_assets, 0) * 100), 2) AS assets_change_percent,
				ROUND(((total_liabilities - prev_liabilities) / NULLIF(prev_liabilities, 0) * 100), 2) AS liabilities_change_percent
			FROM balance_data
			WHERE prev_assets IS NOT NULL
			ORDER BY fiscal_year`,
	},
	{
		title: "4. Operating Cash Flow Trend",
		query: `
			SELECT
				d.fiscal_year,
				c.operating_cash_flow,
				ROUND((c.operating_cash_flow / NULLIF(i.revenue, 0) * 100), 2) AS ocf_to_revenue_percent
			FROM documents d
			JOIN cash_flows c ON d.id = c.document_id
			JOIN income_statements i ON d.id = i.document_id
			ORDER BY d.fiscal_year`,
	},
	{
		title: "5. Liquidity Indicator",
		query: `
			SELECT
				d.fiscal_year,
				ROUND((b.total_assets - b.total_liabilities) / NULLIF(b.total_liabilities, 0) * 100, 2) AS liquidity_ratio_percent
			FROM documents d
			JOIN balance_sheets b ON d.id = b.document_id
			ORDER BY d.fiscal_year`,
	},
}

const summaryQuery = `
	SELECT
		ROUND(AVG(i.revenue / 1000.0), 2) AS avg_revenue_billions,
		ROUND(AVG(i.net_income / 1000.0), 2) AS avg_net_income_billions,
		ROUND(AVG(c.operating_cash_flow / 1000.0), 2) AS avg_operating_cash_flow_billions
	FROM documents d
	JOIN income_statements i ON d.id = i.document_id
	JOIN cash_flows c ON d.id = c.document_id`

// Report runs the full query battery and renders the text report.
// Query failures are fatal to the analytics phase; already-persisted
// data is untouched.
func (e *Engine) Report(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("Financial Analysis Report\n")
	sb.WriteString("=======================\n\n")

	for _, sec := range sections {
		sb.WriteString(sec.title + "\n")
		sb.WriteString(strings.Repeat("-", len(sec.title)) + "\n")
		if err := e.renderQuery(ctx, &sb, sec.query); err != nil {
			return "", fmt.Errorf("%s: %w", sec.title, err)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary Statistics\n")
	sb.WriteString("=================\n")
	if err := e.renderQuery(ctx, &sb, summaryQuery); err != nil {
		return "", fmt.Errorf("summary statistics: %w", err)
	}

	return sb.String(), nil
}

// renderQuery executes one query and writes an aligned table of its
// result set.
func (e *Engine) renderQuery(ctx context.Context, sb *strings.Builder, query string) error {
	rows, err := e.store.DB().QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}

	tw := tabwriter.NewWriter(sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if count == 0 {
		sb.WriteString("(no rows)\n")
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "n/a"
	case float64:
		return fmt.Sprintf("%.2f", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

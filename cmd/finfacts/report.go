package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/finfacts/internal/analytics"
	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/store"
	"github.com/spf13/cobra"
)

var flagReportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the analytics report from an existing database",
	Long:  "Runs the trend-analytics queries against a previously populated database and prints the report, without re-extracting any documents.",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportOut, "out", "o", "", "also write the report to this file")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		return fmt.Errorf("database not found: %s", cfg.DatabasePath)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	text, err := analytics.NewEngine(st).Report(cmd.Context())
	if err != nil {
		return err
	}

	if flagReportOut != "" {
		if err := os.WriteFile(flagReportOut, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	fmt.Print(text)
	return nil
}

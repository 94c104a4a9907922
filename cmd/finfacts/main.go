package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Local development loads settings from .env; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "finfacts",
	Short:         "Extract structured financial facts from corporate disclosure filings",
	Long:          "Finfacts reads disclosure documents, scans inline XBRL tags, extracts canonical financial facts through the OpenAI Assistants API, and persists them to SQLite with CSV snapshots and a trend-analytics report.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run; prints help by default.
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

// newLogger builds the JSON logger all commands share. Logs go to
// stderr so stdout stays clean for command output.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

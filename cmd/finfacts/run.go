package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/finfacts/internal/assistant"
	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/extract"
	"github.com/dgallion1/finfacts/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <files...>",
	Short: "Process disclosure documents through the extraction pipeline",
	Long:  "Reads each document, extracts financial facts, persists the batch to SQLite, exports CSV snapshots and writes the analytics report.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := assistant.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	defer client.Close()

	orch := extract.NewOrchestrator(client, log, cfg.PollInterval, cfg.PollTimeout)
	runner := pipeline.NewRunner(cfg, orch, log)

	result, err := runner.Run(ctx, pipeline.InputsFromPaths(args))
	if err != nil {
		return err
	}

	printSummary(result)
	return nil
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("Processing completed. Results saved to %s\n", result.ResultsPath)
	fmt.Println()
	fmt.Println("Processing Summary:")
	for _, doc := range result.Documents {
		switch doc.Status {
		case pipeline.DocExtracted:
			fmt.Printf("  ✓ %s (FY%s)\n", doc.Label, doc.FiscalYear)
		case pipeline.DocFallback:
			fmt.Printf("  ✓ %s (FY%s, fallback: %s)\n", doc.Label, doc.FiscalYear, doc.Error)
		default:
			fmt.Printf("  ✗ %s: %s\n", doc.Label, doc.Error)
		}
	}
	fmt.Println()
	fmt.Printf("Persisted %d of %d documents\n", result.Persisted, len(result.Documents))
	fmt.Printf("Analytics report: %s\n", result.ReportPath)
}

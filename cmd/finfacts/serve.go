package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/finfacts/internal/api"
	"github.com/dgallion1/finfacts/internal/assistant"
	"github.com/dgallion1/finfacts/internal/config"
	"github.com/dgallion1/finfacts/internal/extract"
	"github.com/dgallion1/finfacts/internal/pipeline"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Accepts document batches over HTTP, runs the extraction pipeline and serves run status and the latest analytics report.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := config.Load()
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	client := assistant.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	defer client.Close()

	orch := extract.NewOrchestrator(client, log, cfg.PollInterval, cfg.PollTimeout)
	runner := pipeline.NewRunner(cfg, orch, log)
	runs := pipeline.NewRunStore(cfg.RunTTL)

	srv := api.NewServer(runner, runs, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired runs are evicted in the background.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				runs.Cleanup()
			}
		}
	}()

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting finfacts", "port", cfg.Port, "model", cfg.OpenAIModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Worker commands for the pidsearch CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pidsearch/internal/sync"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the update-queue worker",
}

func init() {
	workerCmd.AddCommand(workerRunCmd)
}

var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume the update queue until interrupted",
	Long: `Run starts the background worker: it drains the update queue in batches,
sleeps while the queue is empty, and keeps going until SIGINT or SIGTERM.

Example:
  pidsearch worker run --verbose`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "worker run:", err)
			os.Exit(exitSysError)
		}
		defer backend.Detach()

		cfg, err := buildConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, "worker run:", err)
			os.Exit(exitSysError)
		}

		worker, err := sync.NewWorker(backend, cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "worker run:", err)
			os.Exit(exitSysError)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("worker starting",
			zap.String("data_dir", cfg.DataDir),
			zap.Int("batch_size", cfg.BatchSize()),
			zap.Int("idle_seconds", cfg.IdleSeconds()))

		if err := worker.Run(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "worker run:", err)
			os.Exit(exitSysError)
		}

		logger.Info("worker stopped")
		return nil
	},
}

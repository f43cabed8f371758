// -- cmd/scan.go --
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lancetsec/lancet/internal/config"
	"github.com/lancetsec/lancet/internal/observability"
	"github.com/lancetsec/lancet/internal/reporting"
	"github.com/lancetsec/lancet/internal/worker"
)

// newScanCmd creates and configures the `scan` command.
func newScanCmd() *cobra.Command {
	scanCmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Analyzes the given JavaScript files or directories",
		Args:  cobra.MinimumNArgs(1),
		// The PreRunE function is a good place to handle configuration finalization
		// before the main execution logic in RunE.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys. This is the idiomatic way
			// to ensure that command-line flags correctly override values from
			// the config file and environment variables.
			bindings := map[string]string{
				"engine.worker_concurrency": "concurrency",
				"analysis.module":           "module",
				"report.format":             "format",
				"report.output":             "output",
				"report.fail_on_warning":    "fail-on-warning",
			}
			for key, flag := range bindings {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from main.go (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-read the config now that flags are bound, so overrides apply
			// with the right precedence.
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			logger.Info("Starting scan",
				zap.String("runID", runID),
				zap.Strings("paths", args),
				zap.Int("concurrency", cfg.Engine.WorkerConcurrency),
				zap.String("format", cfg.Report.Format),
				zap.Bool("module", cfg.Analysis.Module),
			)

			pool := worker.NewPool(cfg, logger)
			results, err := pool.Run(ctx, args)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Scan aborted", zap.String("runID", runID))
					return fmt.Errorf("scan aborted by user signal")
				}
				return err
			}

			reporter, err := reporting.New(cfg.Report.Format, cfg.Report.Output, Version)
			if err != nil {
				return err
			}

			var scanned, failed, warnings int
			for i := range results {
				result := &results[i]
				if result.Err != nil {
					failed++
					continue
				}
				scanned++
				warnings += len(result.Report.Warnings)
				if err := reporter.Write(result.Report); err != nil {
					reporter.Close()
					return fmt.Errorf("writing report for %s: %w", result.Path, err)
				}
			}
			if err := reporter.Close(); err != nil {
				return err
			}

			logger.Info("Scan complete",
				zap.String("runID", runID),
				zap.Int("scanned", scanned),
				zap.Int("failed", failed),
				zap.Int("warnings", warnings),
			)

			if failed > 0 && scanned == 0 {
				return fmt.Errorf("all %d files failed to analyze", failed)
			}
			if cfg.Report.FailOnWarning && warnings > 0 {
				return fmt.Errorf("%d warnings reported", warnings)
			}
			return nil
		},
	}

	// Reporting flags
	scanCmd.Flags().StringP("output", "o", "", "Output file path for the report. If unset, the report goes to stdout.")
	scanCmd.Flags().StringP("format", "f", "json", "Format for the output report ('json', 'sarif' or 'checkstyle').")
	scanCmd.Flags().Bool("fail-on-warning", false, "Exit non-zero when any warning is reported.")

	// Analysis override flags.
	scanCmd.Flags().Bool("module", false, "Parse sources as ES modules. (Overrides config/env)")
	scanCmd.Flags().IntP("concurrency", "j", 0, "Number of concurrent analysis workers. (Overrides config/env)")

	return scanCmd
}

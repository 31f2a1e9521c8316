package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/mm1-sim/sim/calibration"
	"github.com/inference-sim/mm1-sim/sim/report"
)

var (
	logLevel    string // Log verbosity level
	resultsPath string // File to write the calibration document to (.json, .yaml)
	traceSpans  bool   // Export one OpenTelemetry span per iteration to stderr
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "mm1-sim",
	Short: "Discrete-event simulator and calibration for an M/M/1 production line",
}

// runCmd executes the calibration loop using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Shrink the arrival mean until the production line becomes unstable",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		shutdown, err := setupTracing(traceSpans, os.Stderr)
		if err != nil {
			logrus.Fatalf("Tracing setup failed: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logrus.Warnf("Tracer shutdown: %v", err)
			}
		}()

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		logrus.Infof("Starting calibration: service mean=%.4f arrival mean=%.4f shrink=%.4f budget=%.1f seed=%d",
			cfg.ServiceMean, cfg.ArrivalMean, cfg.ShrinkFactor, cfg.TimeBudget, cfg.Seed)

		startTime := time.Now()
		if _, err := runCalibration(cmd.Context(), cfg, os.Stdout, resultsPath); err != nil {
			logrus.Fatalf("Calibration failed: %v", err)
		}
		logrus.Infof("Calibration wall time: %v", time.Since(startTime))
	},
}

// runCalibration runs the loop with a console sink on w and, if path is set,
// a file sink.
func runCalibration(ctx context.Context, cfg calibration.Config, w io.Writer, path string) (*calibration.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sinks := []calibration.Sink{report.NewConsole(w)}
	if path != "" {
		sinks = append(sinks, report.NewFileSink(path))
	}
	loop, err := calibration.NewLoop(cfg, sinks...)
	if err != nil {
		return nil, err
	}
	return loop.Run(ctx)
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().BoolVar(&traceSpans, "trace", false, "Write OpenTelemetry spans to stderr")

	registerConfigFlags(runCmd)
	registerCalibrationFlags(runCmd)
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write the calibration series to this file (.json, .yaml, .yml)")

	registerConfigFlags(simulateCmd)

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(simulateCmd)
}

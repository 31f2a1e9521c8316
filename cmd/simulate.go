package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/mm1-sim/sim/calibration"
	"github.com/inference-sim/mm1-sim/sim/production"
	"github.com/inference-sim/mm1-sim/sim/report"
)

// simulateCmd runs a single production-line simulation at the configured
// arrival mean, without calibration.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one simulation and print its metrics",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if err := simulateOnce(cfg, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
	},
}

// simulateOnce runs one production line at cfg.ArrivalMean and writes the
// derived and observed metrics to w.
func simulateOnce(cfg calibration.Config, w io.Writer) error {
	run, err := production.Run(cfg.RunConfig(cfg.ArrivalMean))
	if err != nil {
		return err
	}
	m, err := calibration.ComputeRunMetrics(run.Stats)
	if err != nil {
		return err
	}
	m.Iteration = 1
	m.ArrivalMean = cfg.ArrivalMean
	m.ObservedUtilization = run.ObservedUtilization()
	m.ObservedMeanWait = run.MeanObservedWait
	m.PeakQueueLen = run.PeakQueueLen

	if err := report.NewConsole(w).Record(m); err != nil {
		return err
	}
	fmt.Fprintf(w, "%-22s: %d\n", "Arrivals", m.Arrivals)
	fmt.Fprintf(w, "%-22s: %d\n", "Services", m.Services)
	fmt.Fprintf(w, "%-22s: %.2f\n", "Observed Utilization %", m.ObservedUtilization*100)
	fmt.Fprintf(w, "%-22s: %.4f\n", "Observed Mean Wait", m.ObservedMeanWait)
	fmt.Fprintf(w, "%-22s: %d\n", "Peak Queue Length", m.PeakQueueLen)
	fmt.Fprintf(w, "%-22s: %d\n", "Orders Still Waiting", run.QueueLen)
	return nil
}

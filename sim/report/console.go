// Package report provides the result sinks of a calibration: a line-oriented
// console reporter and a JSON/YAML file writer for the result series.
package report

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/inference-sim/mm1-sim/sim/calibration"
)

// Console prints each iteration as it completes and a series table at the end.
type Console struct {
	w io.Writer
}

// NewConsole creates a Console writing to w, or to stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

// Record implements calibration.Sink.
func (c *Console) Record(m calibration.RunMetrics) error {
	_, err := fmt.Fprintf(c.w, "=== Iteration %d (arrival mean %.4f) ===\n"+
		"Service Rate         : %.6f\n"+
		"Arrival Rate         : %.6f\n"+
		"Wait Time            : %s\n"+
		"Queue Length         : %s\n"+
		"Utilization          : %.2f%%\n"+
		"Throughput           : %.6f\n",
		m.Iteration, m.ArrivalMean, m.ServiceRate, m.ArrivalRate,
		m.WaitTime, m.QueueLength, m.UtilizationPercent, m.Throughput)
	return err
}

// Finish implements calibration.Sink.
func (c *Console) Finish(res *calibration.Result) error {
	if _, err := fmt.Fprintf(c.w, "=== Calibration Series (%d iterations, %s) ===\n", len(res.Iterations), res.FinalState); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Iter\tArrival Mean\tWait Time\tQueue Length\tUtilization %\tThroughput\t")
	for i := 0; i < res.Series.Len(); i++ {
		fmt.Fprintf(tw, "%d\t%.4f\t%s\t%s\t%.2f\t%.6f\t\n",
			i+1, res.Parameters[i], res.Series.WaitTime[i], res.Series.QueueLength[i],
			res.Series.UtilizationPercent[i], res.Series.Throughput[i])
	}
	return tw.Flush()
}

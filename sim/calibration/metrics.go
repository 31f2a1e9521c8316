// Derives M/M/1 metrics from the totals of one simulation run.

package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/inference-sim/mm1-sim/sim/production"
)

// ErrDivisionByZero is returned when a run produced no completed service or no
// arrival, or zero total time, so a mean or a rate cannot be formed. It points
// at a misconfigured run and is never turned into NaN or Inf.
var ErrDivisionByZero = errors.New("division by zero")

// Metric is a metric value that may be unbounded. Unbounded is data, not an
// error: it marks wait time and queue length once arrivals outpace service.
type Metric struct {
	Value     float64
	Unbounded bool
}

// Finite returns a bounded metric.
func Finite(v float64) Metric {
	return Metric{Value: v}
}

// Unbounded is the marker for a metric with no finite steady-state value.
var Unbounded = Metric{Unbounded: true}

func (m Metric) String() string {
	if m.Unbounded {
		return "Infinite"
	}
	return fmt.Sprintf("%.4f", m.Value)
}

// MarshalJSON encodes an unbounded metric as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.Unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON decodes null as Unbounded.
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Unbounded
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Finite(v)
	return nil
}

// MarshalYAML encodes an unbounded metric as .inf.
func (m Metric) MarshalYAML() (interface{}, error) {
	if m.Unbounded {
		return math.Inf(1), nil
	}
	return m.Value, nil
}

// RunMetrics is the read-only record derived from one calibration iteration.
type RunMetrics struct {
	Iteration   int     `json:"iteration" yaml:"iteration"`
	ArrivalMean float64 `json:"arrival_mean" yaml:"arrival_mean"` // the iteration's inter-arrival parameter

	MeanServiceTime      float64 `json:"mean_service_time" yaml:"mean_service_time"`
	MeanInterArrivalTime float64 `json:"mean_inter_arrival_time" yaml:"mean_inter_arrival_time"`
	ServiceRate          float64 `json:"service_rate" yaml:"service_rate"`
	ArrivalRate          float64 `json:"arrival_rate" yaml:"arrival_rate"`
	Utilization          float64 `json:"utilization" yaml:"utilization"`
	UtilizationPercent   float64 `json:"utilization_percent" yaml:"utilization_percent"`
	Throughput           float64 `json:"throughput" yaml:"throughput"`
	Stable               bool    `json:"stable" yaml:"stable"`
	WaitTime             Metric  `json:"wait_time" yaml:"wait_time"`
	QueueLength          Metric  `json:"queue_length" yaml:"queue_length"`

	Arrivals            int64   `json:"arrivals" yaml:"arrivals"`
	Services            int64   `json:"services" yaml:"services"`
	ObservedUtilization float64 `json:"observed_utilization" yaml:"observed_utilization"`
	ObservedMeanWait    float64 `json:"observed_mean_wait" yaml:"observed_mean_wait"`
	PeakQueueLen        int     `json:"peak_queue_len" yaml:"peak_queue_len"`
}

// ComputeRunMetrics derives the empirical rates of a run and, when arrivals are
// slower than service, the closed-form M/M/1 expected wait time and queue length:
//
//	W  = λ / (μ(μ-λ))
//	Lq = λ² / (μ(μ-λ))
//
// Otherwise both are Unbounded. λ and μ are the observed rates of one finite run,
// so the result approximates the steady-state values.
func ComputeRunMetrics(acc production.Accumulators) (RunMetrics, error) {
	if acc.ServiceCount == 0 {
		return RunMetrics{}, fmt.Errorf("mean service time: no completed services: %w", ErrDivisionByZero)
	}
	if acc.ArrivalCount == 0 {
		return RunMetrics{}, fmt.Errorf("mean inter-arrival time: no arrivals: %w", ErrDivisionByZero)
	}
	meanService := acc.ServiceTime / float64(acc.ServiceCount)
	meanGap := acc.InterArrivalTime / float64(acc.ArrivalCount)
	if meanService == 0 {
		return RunMetrics{}, fmt.Errorf("service rate: zero mean service time: %w", ErrDivisionByZero)
	}
	if meanGap == 0 {
		return RunMetrics{}, fmt.Errorf("arrival rate: zero mean inter-arrival time: %w", ErrDivisionByZero)
	}

	mu := 1 / meanService
	lambda := 1 / meanGap
	m := RunMetrics{
		MeanServiceTime:      meanService,
		MeanInterArrivalTime: meanGap,
		ServiceRate:          mu,
		ArrivalRate:          lambda,
		Utilization:          lambda / mu,
		UtilizationPercent:   lambda / mu * 100,
		Throughput:           lambda,
		Arrivals:             acc.ArrivalCount,
		Services:             acc.ServiceCount,
		WaitTime:             Unbounded,
		QueueLength:          Unbounded,
	}
	if lambda < mu {
		m.Stable = true
		denom := mu * (mu - lambda)
		m.WaitTime = Finite(lambda / denom)
		m.QueueLength = Finite(lambda * lambda / denom)
	}
	return m, nil
}

// Series holds the four result series, position i being iteration i+1.
type Series struct {
	WaitTime           []Metric  `json:"wait_time" yaml:"wait_time"`
	QueueLength        []Metric  `json:"queue_length" yaml:"queue_length"`
	UtilizationPercent []float64 `json:"utilization_percent" yaml:"utilization_percent"`
	Throughput         []float64 `json:"throughput" yaml:"throughput"`
}

// Append adds one iteration's metrics to every series.
func (s *Series) Append(m RunMetrics) {
	s.WaitTime = append(s.WaitTime, m.WaitTime)
	s.QueueLength = append(s.QueueLength, m.QueueLength)
	s.UtilizationPercent = append(s.UtilizationPercent, m.UtilizationPercent)
	s.Throughput = append(s.Throughput, m.Throughput)
}

// Len returns the number of recorded iterations.
func (s *Series) Len() int {
	return len(s.Throughput)
}

package calibration

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/mm1-sim/sim/production"
)

func TestComputeRunMetrics_Stable(t *testing.T) {
	// GIVEN mean service 2 (μ=0.5) and mean gap 4 (λ=0.25)
	acc := production.Accumulators{ServiceTime: 200, ServiceCount: 100, InterArrivalTime: 400, ArrivalCount: 100}

	m, err := ComputeRunMetrics(acc)
	require.NoError(t, err)

	// THEN W = λ/(μ(μ-λ)) = 0.25/(0.5*0.25) = 2 and Lq = λ²/(μ(μ-λ)) = 0.5
	assert.Equal(t, 2.0, m.MeanServiceTime)
	assert.Equal(t, 4.0, m.MeanInterArrivalTime)
	assert.Equal(t, 0.5, m.ServiceRate)
	assert.Equal(t, 0.25, m.ArrivalRate)
	assert.Equal(t, 0.5, m.Utilization)
	assert.Equal(t, 50.0, m.UtilizationPercent)
	assert.Equal(t, 0.25, m.Throughput)
	assert.True(t, m.Stable)
	assert.Equal(t, Finite(2), m.WaitTime)
	assert.Equal(t, Finite(0.5), m.QueueLength)
}

func TestComputeRunMetrics_UnstableIsUnbounded(t *testing.T) {
	// GIVEN arrivals faster than service
	acc := production.Accumulators{ServiceTime: 200, ServiceCount: 100, InterArrivalTime: 150, ArrivalCount: 100}

	m, err := ComputeRunMetrics(acc)
	require.NoError(t, err)

	assert.False(t, m.Stable)
	assert.Greater(t, m.Utilization, 1.0)
	assert.True(t, m.WaitTime.Unbounded)
	assert.True(t, m.QueueLength.Unbounded)
	assert.Equal(t, "Infinite", m.WaitTime.String())
}

func TestComputeRunMetrics_EqualRatesIsUnbounded(t *testing.T) {
	acc := production.Accumulators{ServiceTime: 200, ServiceCount: 100, InterArrivalTime: 200, ArrivalCount: 100}

	m, err := ComputeRunMetrics(acc)
	require.NoError(t, err)

	assert.Equal(t, 1.0, m.Utilization)
	assert.True(t, m.WaitTime.Unbounded)
}

func TestComputeRunMetrics_DivisionByZero(t *testing.T) {
	tests := []struct {
		name string
		acc  production.Accumulators
	}{
		{"no services", production.Accumulators{InterArrivalTime: 10, ArrivalCount: 4}},
		{"no arrivals", production.Accumulators{ServiceTime: 3, ServiceCount: 1}},
		{"zero gaps", production.Accumulators{ServiceTime: 3, ServiceCount: 1, ArrivalCount: 4}},
		{"zero service time", production.Accumulators{ServiceCount: 1, InterArrivalTime: 10, ArrivalCount: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeRunMetrics(tt.acc)
			assert.True(t, errors.Is(err, ErrDivisionByZero), "got %v", err)
		})
	}
}

func TestComputeRunMetrics_ZeroBudgetRun(t *testing.T) {
	// GIVEN a run with no simulated time
	run, err := production.Run(production.RunConfig{ServiceMean: 2, ArrivalMean: 10, TimeBudget: 0, InitialBurst: 4, Seed: 42})
	require.NoError(t, err)
	require.Equal(t, int64(0), run.Stats.ServiceCount)

	// WHEN metrics are derived
	_, err = ComputeRunMetrics(run.Stats)

	// THEN the missing services surface as DivisionByZero rather than NaN
	assert.True(t, errors.Is(err, ErrDivisionByZero))
}

func TestMetric_JSON(t *testing.T) {
	data, err := json.Marshal([]Metric{Finite(1.5), Unbounded})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))

	var back []Metric
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Metric{Finite(1.5), Unbounded}, back)
}

func TestMetric_YAML(t *testing.T) {
	data, err := yaml.Marshal(map[string]Metric{"finite": Finite(2), "unbounded": Unbounded})
	require.NoError(t, err)
	assert.Contains(t, string(data), "finite: 2")
	assert.Contains(t, string(data), "unbounded: .inf")
}

func TestSeries_Append(t *testing.T) {
	var s Series
	s.Append(RunMetrics{WaitTime: Finite(1), QueueLength: Finite(0.2), UtilizationPercent: 40, Throughput: 0.2})
	s.Append(RunMetrics{WaitTime: Unbounded, QueueLength: Unbounded, UtilizationPercent: 110, Throughput: 0.55})

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Metric{Finite(1), Unbounded}, s.WaitTime)
	assert.Equal(t, []Metric{Finite(0.2), Unbounded}, s.QueueLength)
	assert.Equal(t, []float64{40, 110}, s.UtilizationPercent)
	assert.Equal(t, []float64{0.2, 0.55}, s.Throughput)
}

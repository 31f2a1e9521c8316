// Package calibration drives repeated M/M/1 runs with a shrinking mean
// inter-arrival time until the production line turns unstable.
package calibration

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inference-sim/mm1-sim/sim/production"
)

// ErrNoInstability is returned when MaxIterations runs all stayed at or below
// utilization 1.
var ErrNoInstability = errors.New("system did not become unstable")

const tracerName = "github.com/inference-sim/mm1-sim/sim/calibration"

// State is the position of the loop in its state machine.
type State int

const (
	StateInitializing State = iota
	StateRunning
	StateStableRecorded
	StateUnstableTerminal
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStableRecorded:
		return "stable-recorded"
	case StateUnstableTerminal:
		return "unstable-terminal"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sink consumes calibration output. Record is called after every iteration,
// Finish once after the loop reached the unstable terminal state.
type Sink interface {
	Record(m RunMetrics) error
	Finish(res *Result) error
}

// Result is the finished output of a calibration.
type Result struct {
	Config     Config       `json:"config" yaml:"config"`
	Parameters []float64    `json:"parameters" yaml:"parameters"` // arrival mean of each iteration
	Iterations []RunMetrics `json:"iterations" yaml:"iterations"`
	Series     Series       `json:"series" yaml:"series"`
	FinalState State        `json:"-" yaml:"-"`
}

// Final returns the metrics of the last iteration.
func (r *Result) Final() RunMetrics {
	if len(r.Iterations) == 0 {
		return RunMetrics{}
	}
	return r.Iterations[len(r.Iterations)-1]
}

// Loop is the calibration state machine. Every iteration gets its own
// accumulators, simulator, server and variate source, all seeded identically,
// so only the inter-arrival parameter changes between runs.
type Loop struct {
	cfg    Config
	sinks  []Sink
	state  State
	tracer trace.Tracer
}

// NewLoop validates cfg and creates a loop reporting to sinks.
func NewLoop(cfg Config, sinks ...Sink) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Loop{
		cfg:    cfg,
		sinks:  sinks,
		state:  StateInitializing,
		tracer: otel.Tracer(tracerName),
	}, nil
}

// State returns the current state of the loop.
func (l *Loop) State() State {
	return l.state
}

// Run iterates until the first run with utilization > 1. Reaching that state is
// the normal, successful end. A failed run is not retried: its error is returned
// together with the iterations recorded so far.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	res := &Result{Config: l.cfg}
	mean := l.cfg.ArrivalMean

	for iter := 1; ; iter++ {
		if iter > l.cfg.MaxIterations {
			return res, fmt.Errorf("%w after %d iterations (last arrival mean %.6f)", ErrNoInstability, l.cfg.MaxIterations, mean)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if iter > 1 {
			mean *= l.cfg.ShrinkFactor
		}

		m, err := l.iterate(ctx, iter, mean)
		if err != nil {
			return res, fmt.Errorf("iteration %d (arrival mean %.6f): %w", iter, mean, err)
		}
		res.Parameters = append(res.Parameters, mean)
		res.Iterations = append(res.Iterations, m)
		res.Series.Append(m)
		for _, sink := range l.sinks {
			if err := sink.Record(m); err != nil {
				return res, fmt.Errorf("recording iteration %d: %w", iter, err)
			}
		}

		if m.Utilization > 1 {
			l.state = StateUnstableTerminal
			break
		}
		l.state = StateStableRecorded
	}

	res.FinalState = l.state
	logrus.Infof("Calibration finished after %d iterations: utilization %.2f%% at arrival mean %.6f",
		len(res.Iterations), res.Final().UtilizationPercent, res.Final().ArrivalMean)
	for _, sink := range l.sinks {
		if err := sink.Finish(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (l *Loop) iterate(ctx context.Context, iter int, mean float64) (RunMetrics, error) {
	_, span := l.tracer.Start(ctx, "calibration.iteration", trace.WithAttributes(
		attribute.Int("iteration", iter),
		attribute.Float64("arrival_mean", mean),
	))
	defer span.End()

	l.state = StateInitializing
	runCfg := l.cfg.RunConfig(mean)

	l.state = StateRunning
	run, err := production.Run(runCfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunMetrics{}, err
	}
	m, err := ComputeRunMetrics(run.Stats)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunMetrics{}, err
	}
	m.Iteration = iter
	m.ArrivalMean = mean
	m.ObservedUtilization = run.ObservedUtilization()
	m.ObservedMeanWait = run.MeanObservedWait
	m.PeakQueueLen = run.PeakQueueLen

	span.SetAttributes(
		attribute.Float64("utilization", m.Utilization),
		attribute.Float64("arrival_rate", m.ArrivalRate),
		attribute.Float64("service_rate", m.ServiceRate),
		attribute.Bool("stable", m.Stable),
		attribute.Int64("arrivals", m.Arrivals),
		attribute.Int64("services", m.Services),
	)
	logrus.Infof("Iteration %d: arrival mean=%.6f service rate=%.6f arrival rate=%.6f utilization=%.2f%% wait=%s queue=%s",
		iter, mean, m.ServiceRate, m.ArrivalRate, m.UtilizationPercent, m.WaitTime, m.QueueLength)
	return m, nil
}

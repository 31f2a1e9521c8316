package production

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/mm1-sim/sim"
	"github.com/inference-sim/mm1-sim/sim/variate"
)

// ErrInvalidParameter is returned for run parameters that cannot describe a
// meaningful simulation.
var ErrInvalidParameter = errors.New("invalid parameter")

// RunConfig parameterizes one simulation run.
type RunConfig struct {
	ServiceMean  float64 // mean service duration
	ArrivalMean  float64 // mean inter-arrival gap
	TimeBudget   float64 // simulated time horizon; events after it are never dispatched
	InitialBurst int     // orders admitted at time zero
	Seed         int64

	// Source overrides the seeded DistSource when set.
	Source variate.Source
	// RecordHistory keeps every server holding in RunResult.History.
	RecordHistory bool
}

// Validate checks the run parameters. A zero time budget is accepted: such a
// run dispatches only time-zero events.
func (c RunConfig) Validate() error {
	if !(c.ServiceMean > 0) || math.IsInf(c.ServiceMean, 0) {
		return fmt.Errorf("%w: service mean must be a finite positive number, got %v", ErrInvalidParameter, c.ServiceMean)
	}
	if !(c.ArrivalMean > 0) || math.IsInf(c.ArrivalMean, 0) {
		return fmt.Errorf("%w: arrival mean must be a finite positive number, got %v", ErrInvalidParameter, c.ArrivalMean)
	}
	if !(c.TimeBudget >= 0) || math.IsInf(c.TimeBudget, 0) {
		return fmt.Errorf("%w: time budget must be a finite non-negative number, got %v", ErrInvalidParameter, c.TimeBudget)
	}
	if c.InitialBurst < 0 {
		return fmt.Errorf("%w: initial burst must be non-negative, got %d", ErrInvalidParameter, c.InitialBurst)
	}
	return nil
}

// RunResult is what one run leaves behind once the horizon is reached.
type RunResult struct {
	Stats      Accumulators
	TimeBudget float64
	Clock      float64 // time of the last dispatched event
	Dispatched int64
	Pending    int // events cut off by the horizon

	BusyTime         float64 // time the server was held within the horizon
	PeakQueueLen     int
	QueueLen         int // orders still waiting at the horizon
	StartedOrders    int64
	MeanObservedWait float64
	History          []sim.Holding
}

// ObservedUtilization returns the fraction of the horizon the server was busy,
// or 0 for a zero-length horizon.
func (r *RunResult) ObservedUtilization() float64 {
	if r.TimeBudget <= 0 {
		return 0
	}
	return r.BusyTime / r.TimeBudget
}

// Run builds a fresh simulator, server and variate source, starts one arrival
// generator and runs until the time budget is exhausted. Any sampling or
// scheduling error aborts the run and is returned; partial results are discarded.
func Run(cfg RunConfig) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := cfg.Source
	if src == nil {
		src = variate.NewDistSource(variate.NewSimulationKey(cfg.Seed))
	}

	s := sim.NewSimulator()
	server := sim.NewResource("production")
	if cfg.RecordHistory {
		server = sim.NewRecordingResource("production")
	}
	line := NewLine(server, src, cfg.ServiceMean)
	gen := NewGenerator(line, cfg.ArrivalMean, cfg.InitialBurst)
	if err := s.ScheduleAfter(0, gen); err != nil {
		return nil, err
	}

	logrus.Debugf("Starting run: service mean=%.4f, arrival mean=%.4f, budget=%.1f, seed=%d",
		cfg.ServiceMean, cfg.ArrivalMean, cfg.TimeBudget, cfg.Seed)
	s.RunUntil(cfg.TimeBudget)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("run aborted at t=%.4f: %w", s.Clock, err)
	}
	if err := line.Stats.Validate(); err != nil {
		return nil, err
	}

	res := &RunResult{
		Stats:            *line.Stats,
		TimeBudget:       cfg.TimeBudget,
		Clock:            s.Clock,
		Dispatched:       s.Dispatched(),
		Pending:          s.Pending(),
		BusyTime:         server.BusyTime(cfg.TimeBudget),
		PeakQueueLen:     server.PeakQueueLen(),
		QueueLen:         server.QueueLen(),
		StartedOrders:    line.Started(),
		MeanObservedWait: line.MeanObservedWait(),
		History:          server.History(),
	}
	logrus.Debugf("Run finished: arrivals=%d services=%d dispatched=%d pending=%d",
		res.Stats.ArrivalCount, res.Stats.ServiceCount, res.Dispatched, res.Pending)
	return res, nil
}

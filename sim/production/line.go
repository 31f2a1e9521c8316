// Package production models the order flow of a single-server production line:
// the arrival generator, the per-order process and the run accumulators.
package production

import (
	"github.com/inference-sim/mm1-sim/sim"
	"github.com/inference-sim/mm1-sim/sim/variate"
)

// Line is the state shared by every process of one run: the server, the variate
// source, the accumulators and the order id counter.
type Line struct {
	Server      *sim.Resource
	Source      variate.Source
	ServiceMean float64
	Stats       *Accumulators

	// OnComplete, when set, is called for every order that finishes service.
	OnComplete func(*Order)

	nextOrderID int64
	started     int64   // orders granted the server
	waitSum     float64 // sum of (grant - arrival) over granted orders
}

// NewLine creates a line around server and src with fresh accumulators.
func NewLine(server *sim.Resource, src variate.Source, serviceMean float64) *Line {
	return &Line{
		Server:      server,
		Source:      src,
		ServiceMean: serviceMean,
		Stats:       &Accumulators{},
	}
}

// Admit creates the next order at the current time, counts its arrival and
// starts its process with a zero-delay resume.
func (l *Line) Admit(s *sim.Simulator) (*Order, error) {
	l.nextOrderID++
	o := &Order{
		ID:          l.nextOrderID,
		ArrivalTime: s.Clock,
		State:       StateNew,
		line:        l,
	}
	l.Stats.RecordArrival()
	if err := s.ScheduleAfter(0, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (l *Line) recordStart(o *Order) {
	l.started++
	l.waitSum += o.StartTime - o.ArrivalTime
}

// Started returns the number of orders that have been granted the server.
func (l *Line) Started() int64 {
	return l.started
}

// MeanObservedWait returns the mean time granted orders spent waiting for the
// server, or 0 when none has started.
func (l *Line) MeanObservedWait() float64 {
	if l.started == 0 {
		return 0
	}
	return l.waitSum / float64(l.started)
}

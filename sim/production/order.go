// Defines the Order process: one arrival's walk through the production line.

package production

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/mm1-sim/sim"
)

// OrderState represents the lifecycle state of an order.
type OrderState string

const (
	StateNew       OrderState = "new"
	StateWaiting   OrderState = "waiting"
	StateInService OrderState = "in-service"
	StateCompleted OrderState = "completed"
)

// Order is the process for a single order: request the server, hold it for an
// exponentially distributed service duration, release it and record the service.
// Once started it always runs to completion unless the run is cut off.
type Order struct {
	ID          int64      // Unique, increasing in creation order
	ArrivalTime float64    // Simulated time the order entered the system
	State       OrderState // new, waiting, in-service, completed

	StartTime       float64 // Simulated time the server was granted
	ServiceDuration float64 // Sampled service duration
	CompletionTime  float64 // Simulated time the server was released

	line  *Line
	claim *sim.Claim
}

// Resume advances the order to its next suspension point.
func (o *Order) Resume(s *sim.Simulator) {
	switch o.State {
	case StateNew:
		o.claim = o.line.Server.Request(s, o)
		if !o.claim.Granted() {
			o.State = StateWaiting
			logrus.Tracef("[t %012.4f] order %d waiting (%d in queue)", s.Clock, o.ID, o.line.Server.QueueLen())
			return
		}
		o.startService(s)
	case StateWaiting:
		o.startService(s)
	case StateInService:
		o.complete(s)
	default:
		panic("order resumed after completion")
	}
}

func (o *Order) startService(s *sim.Simulator) {
	duration, err := o.line.Source.Exponential(o.line.ServiceMean)
	if err != nil {
		s.Abort(err)
		return
	}
	o.State = StateInService
	o.StartTime = s.Clock
	o.ServiceDuration = duration
	o.line.recordStart(o)
	if err := s.ScheduleAfter(duration, o); err != nil {
		s.Abort(err)
	}
}

func (o *Order) complete(s *sim.Simulator) {
	if err := o.line.Server.Release(s, o.claim); err != nil {
		s.Abort(err)
		return
	}
	o.State = StateCompleted
	o.CompletionTime = s.Clock
	o.line.Stats.RecordService(o.ServiceDuration)
	logrus.Tracef("[t %012.4f] order %d completed after %.4f in service", s.Clock, o.ID, o.ServiceDuration)
	if o.line.OnComplete != nil {
		o.line.OnComplete(o)
	}
}

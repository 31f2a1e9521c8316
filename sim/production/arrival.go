package production

import (
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/mm1-sim/sim"
)

// DefaultInitialBurst is the number of orders admitted at start-up with no
// inter-arrival delay.
const DefaultInitialBurst = 4

// Generator is the arrival process. On its first resume it admits InitialBurst
// orders back to back; afterwards it sleeps for a Poisson-distributed gap and
// admits one order per wake-up. It has no terminal state: the simulator's
// horizon cuts it off, and the wake-up pending at that point is dropped with
// the simulator. It never holds the server, so nothing leaks when it is cut off.
type Generator struct {
	Line         *Line
	ArrivalMean  float64 // mean of the Poisson gap distribution
	InitialBurst int

	started bool
}

// NewGenerator creates an arrival generator feeding line.
func NewGenerator(line *Line, arrivalMean float64, initialBurst int) *Generator {
	return &Generator{Line: line, ArrivalMean: arrivalMean, InitialBurst: initialBurst}
}

// Resume admits the due order(s) and schedules the next arrival.
func (g *Generator) Resume(s *sim.Simulator) {
	if !g.started {
		g.started = true
		for i := 0; i < g.InitialBurst; i++ {
			if _, err := g.Line.Admit(s); err != nil {
				s.Abort(err)
				return
			}
		}
		logrus.Debugf("[t %012.4f] initial burst of %d orders admitted", s.Clock, g.InitialBurst)
	} else {
		if _, err := g.Line.Admit(s); err != nil {
			s.Abort(err)
			return
		}
	}

	gap, err := g.Line.Source.Poisson(g.ArrivalMean)
	if err != nil {
		s.Abort(err)
		return
	}
	g.Line.Stats.RecordInterArrival(float64(gap))
	if err := s.ScheduleAfter(float64(gap), g); err != nil {
		s.Abort(err)
	}
}

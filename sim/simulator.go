// sim/simulator.go
package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// ErrNegativeDelay is returned when a process asks to be resumed in the past.
var ErrNegativeDelay = errors.New("negative scheduling delay")

// EventQueue implements heap.Interface and orders events by timestamp, then by
// event ID so that equal-time events dispatch in the order they were scheduled.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Timestamp() != eq[j].Timestamp() {
		return eq[i].Timestamp() < eq[j].Timestamp()
	}
	return eq[i].EventID() < eq[j].EventID()
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

// Simulator holds virtual time and the pending event queue. It is single-threaded:
// processes are resumed one at a time from the dispatch loop and never run
// concurrently, so state shared between processes needs no locking.
type Simulator struct {
	Clock float64
	// EventQueue holds every pending event, ordered by (timestamp, event ID)
	EventQueue EventQueue

	nextEventID uint64
	dispatched  int64
	err         error // first error reported by a process; stops the run
}

// NewSimulator creates a simulator with the clock at zero and no pending events.
func NewSimulator() *Simulator {
	return &Simulator{
		Clock:      0,
		EventQueue: make(EventQueue, 0),
	}
}

// newEventID generates the next event ID for this simulator.
func (sim *Simulator) newEventID() uint64 {
	sim.nextEventID++
	return sim.nextEventID
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	if ev == nil {
		panic("Schedule: event must not be nil")
	}
	heap.Push(&sim.EventQueue, ev)
}

// NewResumeEvent creates a ResumeEvent for p at the given absolute time, stamped
// with the next event ID.
func (sim *Simulator) NewResumeEvent(at float64, p Process) *ResumeEvent {
	return &ResumeEvent{time: at, id: sim.newEventID(), Process: p}
}

// ScheduleAfter suspends p until Clock+delay. Negative (or NaN) delays are
// rejected with ErrNegativeDelay rather than clamped.
func (sim *Simulator) ScheduleAfter(delay float64, p Process) error {
	if p == nil {
		panic("ScheduleAfter: process must not be nil")
	}
	if delay < 0 || math.IsNaN(delay) {
		return fmt.Errorf("%w: %v", ErrNegativeDelay, delay)
	}
	sim.Schedule(sim.NewResumeEvent(sim.Clock+delay, p))
	return nil
}

// Peek returns the earliest pending event without removing it, or nil.
func (sim *Simulator) Peek() Event {
	if len(sim.EventQueue) == 0 {
		return nil
	}
	return sim.EventQueue[0]
}

// Pending returns the number of events not yet dispatched.
func (sim *Simulator) Pending() int {
	return len(sim.EventQueue)
}

// Dispatched returns the number of events executed so far.
func (sim *Simulator) Dispatched() int64 {
	return sim.dispatched
}

// Abort records err as the reason the run cannot continue. Only the first error
// is kept; RunUntil stops before dispatching another event.
func (sim *Simulator) Abort(err error) {
	if err == nil || sim.err != nil {
		return
	}
	logrus.Warnf("[t %012.4f] Run aborted: %v", sim.Clock, err)
	sim.err = err
}

// Err returns the error that aborted the run, if any.
func (sim *Simulator) Err() error {
	return sim.err
}

// Advance removes the earliest pending event, moves the clock to its time and
// executes it. Returns false when there is nothing to dispatch.
func (sim *Simulator) Advance() bool {
	if len(sim.EventQueue) == 0 {
		return false
	}
	ev := heap.Pop(&sim.EventQueue).(Event)
	if ev.Timestamp() < sim.Clock {
		panic(fmt.Sprintf("Clock went backwards: %v < %v", ev.Timestamp(), sim.Clock))
	}
	sim.Clock = ev.Timestamp()
	logrus.Tracef("[t %012.4f] Executing %T", sim.Clock, ev)
	ev.Execute(sim)
	sim.dispatched++
	return true
}

// RunUntil dispatches events while the earliest pending one is due at or before
// until, or until a process aborts the run. Later events are left in the queue and are never carried into another
// run; they are dropped together with the Simulator. Returns the number of events
// dispatched by this call.
func (sim *Simulator) RunUntil(until float64) int64 {
	start := sim.dispatched
	for {
		next := sim.Peek()
		if sim.err != nil || next == nil || next.Timestamp() > until {
			break
		}
		sim.Advance()
	}
	logrus.Debugf("[t %012.4f] Run ended at horizon %.4f with %d pending events", sim.Clock, until, len(sim.EventQueue))
	return sim.dispatched - start
}

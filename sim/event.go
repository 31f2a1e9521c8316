package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events.
// Each event carries a Timestamp (simulated time), an EventID used to break
// timestamp ties in scheduling order, and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() float64
	EventID() uint64
	Execute(*Simulator)
}

// Process is a cooperatively scheduled task. Resume runs the process up to its
// next suspension point (a timed delay or a resource wait) or to completion,
// then returns control to the Simulator.
type Process interface {
	Resume(*Simulator)
}

// ResumeEvent wakes a suspended Process at a given simulated time.
type ResumeEvent struct {
	time    float64 // Simulated time at which the process is resumed
	id      uint64  // Scheduling order; lower ids dispatch first on equal time
	Process Process // The process to resume
}

// Timestamp returns the scheduled time of the ResumeEvent.
func (e *ResumeEvent) Timestamp() float64 {
	return e.time
}

// EventID returns the per-simulator sequence number of the event.
func (e *ResumeEvent) EventID() uint64 {
	return e.id
}

// Execute resumes the wrapped process.
func (e *ResumeEvent) Execute(sim *Simulator) {
	logrus.Tracef("<< Resume: %T at %.4f", e.Process, e.time)
	e.Process.Resume(sim)
}

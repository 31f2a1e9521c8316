// Package sim provides the discrete-event simulation kernel for mm1-sim.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: the Event and Process interfaces, and ResumeEvent which wakes a suspended process
//   - simulator.go: virtual clock, the (timestamp, event ID) ordered EventQueue and the dispatch loop
//   - resource.go: the single exclusive server with its FIFO wait queue
//
// # Execution Model
//
// Processes are cooperative state machines. A process runs inside Resume until it
// reaches a suspension point, which is either a timed delay (Simulator.ScheduleAfter)
// or a wait for the server (Resource.Request returned an ungranted Claim), and then
// returns. Exactly one process runs at a time, so shared state needs no locking.
//
// # Sub-packages
//
//   - sim/variate/: exponential and Poisson variates over deterministic RNG streams
//   - sim/production/: order and arrival processes and the per-run accumulators
//   - sim/calibration/: the shrinking inter-arrival calibration loop and M/M/1 metrics
//   - sim/report/: console and file sinks for the result series
package sim

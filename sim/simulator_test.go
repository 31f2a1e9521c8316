package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a Process that logs every resume with the clock value.
type recorder struct {
	name string
	log  *[]string
	at   *[]float64
}

func (r *recorder) Resume(sim *Simulator) {
	*r.log = append(*r.log, r.name)
	if r.at != nil {
		*r.at = append(*r.at, sim.Clock)
	}
}

// sleeper re-schedules itself every period until it has resumed n times.
type sleeper struct {
	period float64
	left   int
	times  []float64
}

func (s *sleeper) Resume(sim *Simulator) {
	s.times = append(s.times, sim.Clock)
	s.left--
	if s.left > 0 {
		_ = sim.ScheduleAfter(s.period, s)
	}
}

func TestSimulator_DispatchesInTimeOrder(t *testing.T) {
	// GIVEN processes scheduled out of time order
	var log []string
	var at []float64
	sim := NewSimulator()
	require.NoError(t, sim.ScheduleAfter(30, &recorder{name: "c", log: &log, at: &at}))
	require.NoError(t, sim.ScheduleAfter(10, &recorder{name: "a", log: &log, at: &at}))
	require.NoError(t, sim.ScheduleAfter(20, &recorder{name: "b", log: &log, at: &at}))

	// WHEN the simulator runs past all of them
	n := sim.RunUntil(100)

	// THEN they are resumed earliest first and the clock follows
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.Equal(t, []float64{10, 20, 30}, at)
	assert.Equal(t, 30.0, sim.Clock)
}

func TestSimulator_EqualTimesDispatchInSchedulingOrder(t *testing.T) {
	// GIVEN many processes scheduled at the same instant
	var log []string
	sim := NewSimulator()
	names := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	for _, name := range names {
		require.NoError(t, sim.ScheduleAfter(5, &recorder{name: name, log: &log}))
	}

	// WHEN they are dispatched
	sim.RunUntil(5)

	// THEN insertion order is preserved
	assert.Equal(t, names, log)
}

func TestSimulator_RunUntil_LeavesLaterEventsPending(t *testing.T) {
	// GIVEN a process resuming every 10 time units, 100 times
	sim := NewSimulator()
	s := &sleeper{period: 10, left: 100}
	require.NoError(t, sim.ScheduleAfter(0, s))

	// WHEN the run stops at 45
	sim.RunUntil(45)

	// THEN events at 0..40 ran, the one at 50 is still pending
	assert.Equal(t, []float64{0, 10, 20, 30, 40}, s.times)
	require.Equal(t, 1, sim.Pending())
	assert.Equal(t, 50.0, sim.Peek().Timestamp())
	assert.Equal(t, 40.0, sim.Clock)
}

func TestSimulator_RunUntil_InclusiveBoundary(t *testing.T) {
	var log []string
	sim := NewSimulator()
	require.NoError(t, sim.ScheduleAfter(7, &recorder{name: "edge", log: &log}))

	sim.RunUntil(7)

	assert.Equal(t, []string{"edge"}, log)
}

func TestSimulator_RunUntil_ZeroBudgetRunsOnlyTimeZero(t *testing.T) {
	var log []string
	sim := NewSimulator()
	require.NoError(t, sim.ScheduleAfter(0, &recorder{name: "now", log: &log}))
	require.NoError(t, sim.ScheduleAfter(0.001, &recorder{name: "later", log: &log}))

	sim.RunUntil(0)

	assert.Equal(t, []string{"now"}, log)
	assert.Equal(t, 1, sim.Pending())
}

func TestSimulator_ScheduleAfter_RejectsNegativeDelay(t *testing.T) {
	sim := NewSimulator()
	err := sim.ScheduleAfter(-1, &recorder{log: new([]string)})
	assert.True(t, errors.Is(err, ErrNegativeDelay))
	assert.Equal(t, 0, sim.Pending())
}

func TestSimulator_Advance_EmptyQueue(t *testing.T) {
	sim := NewSimulator()
	assert.False(t, sim.Advance())
	assert.Nil(t, sim.Peek())
}

func TestSimulator_ClockNeverMovesBackwards(t *testing.T) {
	// GIVEN a process that schedules zero-delay follow-ups
	sim := NewSimulator()
	s := &sleeper{period: 0, left: 5}
	require.NoError(t, sim.ScheduleAfter(3, s))
	var other []float64
	require.NoError(t, sim.ScheduleAfter(4, &recorder{name: "x", log: new([]string), at: &other}))

	// WHEN dispatching everything
	for sim.Advance() {
	}

	// THEN observed times are non-decreasing
	assert.Equal(t, []float64{3, 3, 3, 3, 3}, s.times)
	assert.Equal(t, []float64{4}, other)
	assert.Equal(t, int64(6), sim.Dispatched())
}

// aborter aborts the run on its first resume.
type aborter struct{ err error }

func (a *aborter) Resume(sim *Simulator) { sim.Abort(a.err) }

func TestSimulator_Abort_StopsRun(t *testing.T) {
	// GIVEN a process that fails at t=5 and another due at t=6
	boom := errors.New("boom")
	var log []string
	sim := NewSimulator()
	require.NoError(t, sim.ScheduleAfter(5, &aborter{err: boom}))
	require.NoError(t, sim.ScheduleAfter(6, &recorder{name: "late", log: &log}))

	// WHEN running to a far horizon
	sim.RunUntil(1000)

	// THEN the run stops right after the failure and the first error is kept
	assert.Empty(t, log)
	assert.ErrorIs(t, sim.Err(), boom)
	sim.Abort(errors.New("second"))
	assert.ErrorIs(t, sim.Err(), boom)
}

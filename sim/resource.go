package sim

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ErrNotHolder is returned when a claim that does not hold the server is released.
var ErrNotHolder = errors.New("claim does not hold the resource")

// Claim is the handle returned by Resource.Request. It is granted either
// synchronously at request time or later, when the claim reaches the head of
// the wait queue and the server is released.
type Claim struct {
	ID          int64   // Request order, starting at 1
	Process     Process // Resumed when a queued claim is granted
	RequestedAt float64 // Simulated time of the request
	GrantedAt   float64 // Simulated time of the grant (valid when Granted)

	granted  bool
	released bool
}

// Granted reports whether the claim currently holds, or has held, the server.
func (c *Claim) Granted() bool {
	return c.granted
}

// Holding is one closed interval during which a claim held the server.
type Holding struct {
	ClaimID    int64
	GrantedAt  float64
	ReleasedAt float64
}

// Resource models one exclusive server with a FIFO wait queue. At most one claim
// holds it at any simulated time, and queued claims are granted strictly in
// request order.
type Resource struct {
	Name string

	holder  *Claim
	waitQ   *WaitQueue
	nextID  int64
	grants  int64
	busy    float64 // accumulated busy time of closed holdings
	peakLen int

	recordHistory bool
	history       []Holding
}

// NewResource creates an idle single-server resource.
func NewResource(name string) *Resource {
	return &Resource{Name: name, waitQ: &WaitQueue{}}
}

// NewRecordingResource is like NewResource but also keeps every grant/release
// interval, available through History.
func NewRecordingResource(name string) *Resource {
	r := NewResource(name)
	r.recordHistory = true
	return r
}

// Request asks for the server on behalf of p. When the server is free the claim
// is granted immediately and the caller continues without suspending. Otherwise
// the claim joins the wait queue and the caller must return from Resume; p is
// resumed at the release time once the claim reaches the head of the queue.
func (r *Resource) Request(sim *Simulator, p Process) *Claim {
	if p == nil {
		panic("Request: process must not be nil")
	}
	r.nextID++
	c := &Claim{ID: r.nextID, Process: p, RequestedAt: sim.Clock}
	if r.holder == nil {
		r.grant(sim, c)
		return c
	}
	r.waitQ.Enqueue(c)
	if r.waitQ.Len() > r.peakLen {
		r.peakLen = r.waitQ.Len()
	}
	logrus.Tracef("[t %012.4f] %s: claim %d queued (%d waiting)", sim.Clock, r.Name, c.ID, r.waitQ.Len())
	return c
}

func (r *Resource) grant(sim *Simulator, c *Claim) {
	c.granted = true
	c.GrantedAt = sim.Clock
	r.holder = c
	r.grants++
	logrus.Tracef("[t %012.4f] %s: claim %d granted", sim.Clock, r.Name, c.ID)
}

// Release frees the server held by c. If claims are waiting, the head of the
// queue is granted at the current time and its process is scheduled to resume
// with zero delay.
func (r *Resource) Release(sim *Simulator, c *Claim) error {
	if c == nil || c != r.holder || c.released {
		id := int64(0)
		if c != nil {
			id = c.ID
		}
		return fmt.Errorf("%s: release of claim %d: %w", r.Name, id, ErrNotHolder)
	}
	c.released = true
	r.holder = nil
	r.busy += sim.Clock - c.GrantedAt
	if r.recordHistory {
		r.history = append(r.history, Holding{ClaimID: c.ID, GrantedAt: c.GrantedAt, ReleasedAt: sim.Clock})
	}
	logrus.Tracef("[t %012.4f] %s: claim %d released", sim.Clock, r.Name, c.ID)

	if next := r.waitQ.Dequeue(); next != nil {
		r.grant(sim, next)
		if err := sim.ScheduleAfter(0, next.Process); err != nil {
			return err
		}
	}
	return nil
}

// Busy reports whether a claim currently holds the server.
func (r *Resource) Busy() bool {
	return r.holder != nil
}

// QueueLen returns the number of claims waiting for the server.
func (r *Resource) QueueLen() int {
	return r.waitQ.Len()
}

// PeakQueueLen returns the longest wait queue observed.
func (r *Resource) PeakQueueLen() int {
	return r.peakLen
}

// Grants returns how many claims have been granted the server.
func (r *Resource) Grants() int64 {
	return r.grants
}

// BusyTime returns the total time the server has been held up to now,
// including the open holding of the current holder.
func (r *Resource) BusyTime(now float64) float64 {
	busy := r.busy
	if r.holder != nil && now > r.holder.GrantedAt {
		busy += now - r.holder.GrantedAt
	}
	return busy
}

// History returns the closed holdings in release order. Empty unless the
// resource was created with NewRecordingResource.
func (r *Resource) History() []Holding {
	return r.history
}

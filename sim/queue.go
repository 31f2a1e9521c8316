// Implements the WaitQueue, which holds claims waiting for the server.
// Claims are enqueued when the server is busy at request time.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is a FIFO queue of claims waiting to be granted the server.
type WaitQueue struct {
	queue []*Claim // FIFO queue of pending claims
}

// Enqueue adds a claim to the back of the wait queue.
func (wq *WaitQueue) Enqueue(c *Claim) {
	if c == nil {
		panic("Enqueue: claim must not be nil")
	}
	wq.queue = append(wq.queue, c)
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, c := range wq.queue {
		sb.WriteString(fmt.Sprint(c.ID))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of claims in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the claim at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *Claim {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Dequeue removes and returns the claim at the front of the queue, or nil.
func (wq *WaitQueue) Dequeue() *Claim {
	if len(wq.queue) == 0 {
		return nil
	}
	head := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	return head
}

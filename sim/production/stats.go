package production

import "fmt"

// Accumulators are the per-run totals mutated by the order and arrival
// processes. A fresh value is used for every run; nothing carries across runs.
// Not safe for concurrent use: the simulator resumes one process at a time.
type Accumulators struct {
	ServiceTime      float64 // Sum of sampled service durations of completed orders
	ServiceCount     int64   // Number of completed orders
	InterArrivalTime float64 // Sum of sampled inter-arrival gaps
	ArrivalCount     int64   // Number of created orders
}

// RecordArrival counts one created order.
func (a *Accumulators) RecordArrival() {
	a.ArrivalCount++
}

// RecordInterArrival adds one sampled gap to the inter-arrival total.
func (a *Accumulators) RecordInterArrival(gap float64) {
	a.InterArrivalTime += gap
}

// RecordService adds one completed service of the given duration.
func (a *Accumulators) RecordService(duration float64) {
	a.ServiceTime += duration
	a.ServiceCount++
}

// Reset zeroes all totals.
func (a *Accumulators) Reset() {
	*a = Accumulators{}
}

// Validate checks that an order never completes before it was created.
func (a *Accumulators) Validate() error {
	if a.ServiceCount < 0 || a.ArrivalCount < 0 {
		return fmt.Errorf("negative counts: services=%d arrivals=%d", a.ServiceCount, a.ArrivalCount)
	}
	if a.ServiceCount > a.ArrivalCount {
		return fmt.Errorf("completed services (%d) exceed arrivals (%d)", a.ServiceCount, a.ArrivalCount)
	}
	return nil
}

package mapview

import "time"

// deferredTask is a single-shot timer polled from the host loop. Scheduling
// it again replaces the pending deadline and callback.
type deferredTask struct {
	deadline time.Time
	fn       func()
	armed    bool
}

func (d *deferredTask) schedule(at time.Time, fn func()) {
	d.deadline = at
	d.fn = fn
	d.armed = true
}

func (d *deferredTask) cancel() {
	d.armed = false
	d.fn = nil
}

func (d *deferredTask) pending() bool {
	return d.armed
}

// poll runs the callback if the deadline has passed. The task is disarmed
// before the callback runs, so the callback may schedule it again.
func (d *deferredTask) poll(now time.Time) bool {
	if !d.armed || now.Before(d.deadline) {
		return false
	}
	fn := d.fn
	d.cancel()
	if fn != nil {
		fn()
	}
	return true
}

package sim

import (
	"container/heap"
	"log"
)

// RetryDelay is the fixed deferral, in ticks, used whenever a handler is
// blocked. There is deliberately no backoff: the simulation re-polls every
// tick until the blocking condition clears.
const RetryDelay = 1

type pending struct {
	event *Event
	due   int
	seq   int64
}

// eventQueue orders pending events by due tick, FIFO within a tick.
type eventQueue []*pending

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)        { *q = append(*q, x.(*pending)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Driver owns simulated time and the queue of pending events. Each Step
// dispatches exactly one task, the head of the earliest-due event's chain,
// to its recipient; recipients mutate the chain and hand the event back.
type Driver struct {
	clock  int
	queue  eventQueue
	seq    int64
	logger *log.Logger
}

// NewDriver returns a driver with the clock at tick zero.
func NewDriver(logger *log.Logger) *Driver {
	return &Driver{logger: logger}
}

// Clock returns the current simulated tick.
func (d *Driver) Clock() int { return d.clock }

// Schedule queues an event for dispatch at the current tick.
func (d *Driver) Schedule(e *Event) {
	d.ScheduleAfter(e, 0)
}

// ScheduleAfter queues an event for dispatch delay ticks from now.
func (d *Driver) ScheduleAfter(e *Event, delay int) {
	if delay < 0 {
		delay = 0
	}
	d.seq++
	heap.Push(&d.queue, &pending{event: e, due: d.clock + delay, seq: d.seq})
}

// Pending returns the number of queued events.
func (d *Driver) Pending() int { return len(d.queue) }

// Step dispatches the next task. It advances the clock to the event's due
// tick, consumes the head of the chain, and routes it to its recipient.
// Events whose chains have emptied terminate silently. It returns false
// when no events remain.
func (d *Driver) Step() bool {
	for len(d.queue) > 0 {
		p := heap.Pop(&d.queue).(*pending)
		if p.due > d.clock {
			d.clock = p.due
		}
		if p.event.Len() == 0 {
			// Natural termination: nothing re-submitted the chain.
			continue
		}
		task, to := p.event.popFront()
		to.HandleTask(task, p.event)
		return true
	}
	return false
}

// Run steps the simulation until the queue drains or the clock passes
// maxTicks (0 means no budget). It reports whether the queue drained.
func (d *Driver) Run(maxTicks int) bool {
	for len(d.queue) > 0 {
		if maxTicks > 0 && d.queue[0].due > maxTicks {
			d.logf("driver_budget_exhausted tick=%d pending=%d", d.clock, len(d.queue))
			return false
		}
		d.Step()
	}
	return true
}

func (d *Driver) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

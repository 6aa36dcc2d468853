package sim

// Consumer handles one dispatched task together with the event that owns
// it. Handlers never block: a consumer that cannot make progress re-submits
// the event to the driver with a delay instead.
type Consumer interface {
	HandleTask(t *Task, e *Event)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(t *Task, e *Event)

func (f ConsumerFunc) HandleTask(t *Task, e *Event) { f(t, e) }

type step struct {
	task *Task
	to   Consumer
}

// Event is one logical order's remaining chain of (task, recipient) steps,
// consumed strictly front to back. Chains grow only by prepending, so
// multi-step expansions are constructed in reverse execution order.
type Event struct {
	ID    string
	steps []step
}

// NewEvent returns an event whose chain holds the single given step.
func NewEvent(id string, t *Task, to Consumer) *Event {
	e := &Event{ID: id}
	e.PushFront(t, to)
	return e
}

// PushFront inserts one step at the front of the remaining chain.
func (e *Event) PushFront(t *Task, to Consumer) {
	e.steps = append([]step{{task: t, to: to}}, e.steps...)
}

// Len returns the number of remaining steps.
func (e *Event) Len() int { return len(e.steps) }

// popFront removes and returns the chain's head. Callers check Len first.
func (e *Event) popFront() (*Task, Consumer) {
	s := e.steps[0]
	e.steps = e.steps[1:]
	return s.task, s.to
}

// Peek returns the chain's head task without consuming it, or nil when the
// chain is empty.
func (e *Event) Peek() *Task {
	if len(e.steps) == 0 {
		return nil
	}
	return e.steps[0].task
}

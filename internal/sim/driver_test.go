package sim_test

import (
	"testing"

	"shelfline/internal/sim"
)

// traceConsumer records the tick at which each task reached it.
type traceConsumer struct {
	name  string
	trace *[]string
}

func (c *traceConsumer) HandleTask(t *sim.Task, e *sim.Event) {
	*c.trace = append(*c.trace, c.name)
}

func TestStepDispatchesFIFOWithinTick(t *testing.T) {
	d := sim.NewDriver(nil)
	var trace []string
	a := &traceConsumer{name: "a", trace: &trace}
	b := &traceConsumer{name: "b", trace: &trace}
	d.Schedule(sim.NewEvent("a", &sim.Task{Type: sim.RaiseShelf}, a))
	d.Schedule(sim.NewEvent("b", &sim.Task{Type: sim.RaiseShelf}, b))

	for d.Step() {
	}
	if len(trace) != 2 || trace[0] != "a" || trace[1] != "b" {
		t.Fatalf("dispatch order = %v, want [a b]", trace)
	}
	if d.Clock() != 0 {
		t.Fatalf("clock = %d, want 0", d.Clock())
	}
}

func TestScheduleAfterAdvancesClock(t *testing.T) {
	d := sim.NewDriver(nil)
	var trace []string
	later := &traceConsumer{name: "later", trace: &trace}
	soon := &traceConsumer{name: "soon", trace: &trace}
	d.ScheduleAfter(sim.NewEvent("later", &sim.Task{Type: sim.RaiseShelf}, later), 5)
	d.ScheduleAfter(sim.NewEvent("soon", &sim.Task{Type: sim.RaiseShelf}, soon), 2)

	if !d.Step() {
		t.Fatal("expected a step")
	}
	if d.Clock() != 2 {
		t.Fatalf("clock = %d, want 2", d.Clock())
	}
	if !d.Step() {
		t.Fatal("expected a second step")
	}
	if d.Clock() != 5 {
		t.Fatalf("clock = %d, want 5", d.Clock())
	}
	if trace[0] != "soon" || trace[1] != "later" {
		t.Fatalf("dispatch order = %v", trace)
	}
}

// chainConsumer re-prepends n follow-up tasks with a one-tick delay,
// modeling a multi-tick physical action.
type chainConsumer struct {
	driver *sim.Driver
	left   int
	ticks  []int
}

func (c *chainConsumer) HandleTask(task *sim.Task, e *sim.Event) {
	c.ticks = append(c.ticks, c.driver.Clock())
	if c.left > 0 {
		c.left--
		e.PushFront(task, c)
		c.driver.ScheduleAfter(e, sim.RetryDelay)
	}
}

func TestResubmittedChainAdvancesOneTickAtATime(t *testing.T) {
	d := sim.NewDriver(nil)
	c := &chainConsumer{driver: d, left: 3}
	d.Schedule(sim.NewEvent("walk", &sim.Task{Type: sim.SpecificRobotToLocation}, c))

	if !d.Run(100) {
		t.Fatal("queue should drain")
	}
	want := []int{0, 1, 2, 3}
	if len(c.ticks) != len(want) {
		t.Fatalf("ticks = %v, want %v", c.ticks, want)
	}
	for i := range want {
		if c.ticks[i] != want[i] {
			t.Fatalf("ticks = %v, want %v", c.ticks, want)
		}
	}
}

func TestRunStopsAtBudget(t *testing.T) {
	d := sim.NewDriver(nil)
	c := &chainConsumer{driver: d, left: 50}
	d.Schedule(sim.NewEvent("walk", &sim.Task{Type: sim.SpecificRobotToLocation}, c))

	if d.Run(10) {
		t.Fatal("queue should not drain within budget")
	}
	if d.Pending() == 0 {
		t.Fatal("pending work should remain")
	}
	if d.Clock() > 10 {
		t.Fatalf("clock = %d, ran past budget", d.Clock())
	}
}

func TestEmptyChainTerminatesSilently(t *testing.T) {
	d := sim.NewDriver(nil)
	var trace []string
	c := &traceConsumer{name: "once", trace: &trace}
	e := sim.NewEvent("once", &sim.Task{Type: sim.RaiseShelf}, c)
	d.Schedule(e)

	if !d.Run(0) {
		t.Fatal("queue should drain")
	}
	if len(trace) != 1 {
		t.Fatalf("dispatched %d times, want 1", len(trace))
	}
	if e.Len() != 0 {
		t.Fatalf("chain has %d leftover steps", e.Len())
	}
}

func TestPeek(t *testing.T) {
	var trace []string
	c := &traceConsumer{name: "x", trace: &trace}
	e := sim.NewEvent("x", &sim.Task{Type: sim.LowerShelf}, c)
	e.PushFront(&sim.Task{Type: sim.RaiseShelf}, c)
	if got := e.Peek(); got == nil || got.Type != sim.RaiseShelf {
		t.Fatalf("peek = %v, want raise_shelf at front", got)
	}
	if e.Len() != 2 {
		t.Fatalf("len = %d, want 2", e.Len())
	}
}

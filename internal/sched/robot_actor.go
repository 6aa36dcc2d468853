package sched

import (
	"shelfline/internal/sim"
)

// robotActor executes the primitive robot tasks: moving one cell and
// toggling a shelf. Each primitive takes one tick, so after acting the
// event is re-submitted with the standard retry delay rather than
// scheduled immediately.
type robotActor struct {
	driver   *sim.Driver
	recorder sim.Recorder
}

func (a *robotActor) HandleTask(t *sim.Task, e *sim.Event) {
	switch t.Type {
	case sim.SpecificRobotToLocation:
		t.Robot.MoveTo(t.Location)
		a.recorder.Record(a.driver.Clock(), "robot.moved", "robot", t.Robot.String(), map[string]any{
			"location": t.Location,
			"charge":   t.Robot.ChargeLevel(),
		})
	case sim.RaiseShelf:
		t.Robot.RaiseShelf()
		a.recorder.Record(a.driver.Clock(), "shelf.raised", "robot", t.Robot.String(), map[string]any{
			"location": t.Robot.Location(),
		})
	case sim.LowerShelf:
		t.Robot.LowerShelf()
		a.recorder.Record(a.driver.Clock(), "shelf.lowered", "robot", t.Robot.String(), map[string]any{
			"location": t.Robot.Location(),
		})
	}
	a.driver.ScheduleAfter(e, sim.RetryDelay)
}

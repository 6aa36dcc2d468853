// Package sched turns high-level retrieval requests into ordered chains of
// primitive robot actions and advances them one dispatched task at a time.
package sched

import (
	"fmt"
	"log"

	"shelfline/internal/domain"
	"shelfline/internal/fleet"
	"shelfline/internal/path"
	"shelfline/internal/sim"
)

// PickerStation is the scheduler's view of the picker: where retrieved
// shelves are presented, and the recipient for pick notifications.
type PickerStation interface {
	sim.Consumer
	DropoffLocation() domain.Point
}

// OrderTracker records order state transitions. Satisfied by
// inventory.Inventory.
type OrderTracker interface {
	MarkCompleted(id string, tick int)
}

// Scheduler is the robot task scheduler. It consumes dispatched tasks,
// expands retrieval requests into primitive chains, arbitrates the robot
// pool, and defers whenever a robot or a route is unavailable. Blocking is
// always modeled as a re-submission with a one-tick delay; HandleTask
// itself returns promptly in every case.
type Scheduler struct {
	driver   *sim.Driver
	finder   *path.Finder
	pool     *fleet.Pool
	picker   PickerStation
	robots   *robotActor
	orders   OrderTracker
	recorder sim.Recorder
	logger   *log.Logger
}

// New wires a scheduler to its collaborators. recorder and logger may be
// nil.
func New(driver *sim.Driver, finder *path.Finder, pool *fleet.Pool, picker PickerStation, recorder sim.Recorder, logger *log.Logger) *Scheduler {
	if recorder == nil {
		recorder = sim.NopRecorder{}
	}
	s := &Scheduler{
		driver:   driver,
		finder:   finder,
		pool:     pool,
		picker:   picker,
		recorder: recorder,
		logger:   logger,
	}
	s.robots = &robotActor{driver: driver, recorder: recorder}
	return s
}

// Pool exposes the fleet for status reporting.
func (s *Scheduler) Pool() *fleet.Pool { return s.pool }

// SetOrderTracker installs the order-state sink. The inventory is built
// after the scheduler, so this runs during wiring rather than in New.
func (s *Scheduler) SetOrderTracker(o OrderTracker) { s.orders = o }

// HandleTask consumes one dispatched task and the event owning it.
// Recognized types are the scheduler-recipient ones; routing any other
// type here is a caller bug and the task is dropped with a log line.
func (s *Scheduler) HandleTask(t *sim.Task, e *sim.Event) {
	switch t.Type {
	case sim.AvailableRobotRetrieveFromLocation:
		s.handleRetrieve(t, e)
	case sim.SpecificRobotPlotPath:
		s.handlePlotPath(t, e)
	case sim.EndItemRetrieval:
		s.handleEndRetrieval(t, e)
	case sim.RobotCharge:
		s.handleCharge(t, e)
	default:
		s.logf("unroutable_task type=%s event=%s", t.Type, e.ID)
	}
}

func (s *Scheduler) handleRetrieve(t *sim.Task, e *sim.Event) {
	s.logf("tick=%d sending a robot to %s", s.driver.Clock(), t.Location)

	robot := s.pool.Acquire()
	if robot == nil {
		// Busy-wait: same task, same event, one tick later.
		s.record("robot.deferred", "order", t.OrderID, map[string]any{
			"location": t.Location,
		})
		e.PushFront(t, s)
		s.driver.ScheduleAfter(e, sim.RetryDelay)
		return
	}

	for _, st := range s.buildRetrievalChain(robot, t) {
		e.PushFront(st.task, st.to)
	}
	s.record("robot.dispatched", "robot", robot.String(), map[string]any{
		"order":    t.OrderID,
		"location": t.Location,
	})
	s.driver.Schedule(e)
}

type chainStep struct {
	task *sim.Task
	to   sim.Consumer
}

// buildRetrievalChain returns the fixed retrieval chain in prepend order.
// Execution order is the reverse: route to the shelf, raise it, route to
// the picker drop-off, notify the picker, route the shelf home, lower it,
// route the robot home, end the retrieval. Keeping the reversal in this
// one place is what makes the front-to-back ordering contract hold.
func (s *Scheduler) buildRetrievalChain(robot *fleet.Robot, t *sim.Task) []chainStep {
	home := robot.Location()
	return []chainStep{
		// Finish the item retrieval.
		{&sim.Task{Type: sim.EndItemRetrieval, Robot: robot, OrderID: t.OrderID}, s},
		// Direct the robot back to its home.
		{&sim.Task{Type: sim.SpecificRobotPlotPath, Robot: robot, Location: home, OrderID: t.OrderID}, s},
		// Lower the shelf.
		{&sim.Task{Type: sim.LowerShelf, Robot: robot, OrderID: t.OrderID}, s.robots},
		// Return the shelf to its slot.
		{&sim.Task{Type: sim.SpecificRobotPlotPath, Robot: robot, Location: t.Location, OrderID: t.OrderID}, s},
		// Tell the picker the item has arrived.
		{&sim.Task{Type: sim.PickItemFromShelf, SKU: t.SKU, OrderID: t.OrderID}, s.picker},
		// Direct the robot to the picker.
		{&sim.Task{Type: sim.SpecificRobotPlotPath, Robot: robot, Location: s.picker.DropoffLocation(), OrderID: t.OrderID}, s},
		// Lift the shelf holding the item.
		{&sim.Task{Type: sim.RaiseShelf, Robot: robot, OrderID: t.OrderID}, s.robots},
		// Direct the robot to the shelf.
		{&sim.Task{Type: sim.SpecificRobotPlotPath, Robot: robot, Location: t.Location, OrderID: t.OrderID}, s},
	}
}

func (s *Scheduler) handlePlotPath(t *sim.Task, e *sim.Event) {
	route := s.finder.FindPath(t.Robot.Location(), t.Location, t.Robot.Carrying())
	if route == nil {
		// Already at the destination, or no route exists yet. Soft
		// failure: the chain continues one tick later.
		s.logf("tick=%d %s already at destination or no route to %s", s.driver.Clock(), t.Robot, t.Location)
		s.record("route.unavailable", "robot", t.Robot.String(), map[string]any{
			"from": t.Robot.Location(),
			"to":   t.Location,
		})
		s.driver.ScheduleAfter(e, sim.RetryDelay)
		return
	}
	// Prepend waypoint legs in reverse so they execute front to back; the
	// robot visits every intermediate cell.
	for i := len(route) - 1; i >= 0; i-- {
		e.PushFront(&sim.Task{
			Type:     sim.SpecificRobotToLocation,
			Location: route[i],
			Robot:    t.Robot,
			OrderID:  t.OrderID,
		}, s.robots)
	}
	s.record("route.planned", "robot", t.Robot.String(), map[string]any{
		"from":  t.Robot.Location(),
		"to":    t.Location,
		"cells": len(route),
	})
	s.driver.Schedule(e)
}

func (s *Scheduler) handleEndRetrieval(t *sim.Task, e *sim.Event) {
	if err := s.pool.Release(t.Robot); err != nil {
		s.logf("release_failed robot=%s err=%v", t.Robot, err)
	}
	t.Robot.CompleteTrip()
	if s.orders != nil {
		s.orders.MarkCompleted(t.OrderID, s.driver.Clock())
	}
	s.record("order.completed", "order", t.OrderID, map[string]any{
		"robot": t.Robot.String(),
	})
	// Let the order's own event run out.
	s.driver.Schedule(e)
	// Charging is unbounded background work: decouple it into its own
	// event so the order completes independently.
	charge := sim.NewEvent(
		fmt.Sprintf("%s/charge", e.ID),
		&sim.Task{Type: sim.RobotCharge, Robot: t.Robot},
		s,
	)
	s.driver.Schedule(charge)
}

func (s *Scheduler) handleCharge(t *sim.Task, e *sim.Event) {
	keepCharging, err := s.pool.ChargeTick(t.Robot)
	if err != nil {
		s.logf("charge_failed robot=%s err=%v", t.Robot, err)
		return
	}
	s.logf("tick=%d charging %s %d%%", s.driver.Clock(), t.Robot, t.Robot.ChargeLevel())
	if keepCharging {
		e.PushFront(&sim.Task{Type: sim.RobotCharge, Robot: t.Robot}, s)
		s.driver.ScheduleAfter(e, sim.RetryDelay)
		return
	}
	// Done charging; the event terminates naturally.
	s.logf("tick=%d %s done charging", s.driver.Clock(), t.Robot)
	s.record("robot.charged", "robot", t.Robot.String(), map[string]any{
		"charge": t.Robot.ChargeLevel(),
	})
}

func (s *Scheduler) record(evtType, entityKind, entityID string, payload map[string]any) {
	s.recorder.Record(s.driver.Clock(), evtType, entityKind, entityID, payload)
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

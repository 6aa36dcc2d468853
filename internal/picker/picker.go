// Package picker models the picking station where shelves are presented
// and items are pulled for orders.
package picker

import (
	"log"

	"shelfline/internal/domain"
	"shelfline/internal/sim"
)

// Resubmitter re-submits an event after a delay. Satisfied by sim.Driver.
type Resubmitter interface {
	Clock() int
	ScheduleAfter(e *sim.Event, delay int)
}

// OrderTracker records that an order's item was pulled. Satisfied by
// inventory.Inventory.
type OrderTracker interface {
	MarkPicked(id string, tick int)
}

// Station is the single picking station. Picking an item takes one tick,
// the same unit of work as a robot moving one cell.
type Station struct {
	dropoff  domain.Point
	driver   Resubmitter
	orders   OrderTracker
	recorder sim.Recorder
	logger   *log.Logger
	picked   int
}

// NewStation places a station at the given drop-off cell. recorder and
// logger may be nil.
func NewStation(dropoff domain.Point, driver Resubmitter, recorder sim.Recorder, logger *log.Logger) *Station {
	if recorder == nil {
		recorder = sim.NopRecorder{}
	}
	return &Station{dropoff: dropoff, driver: driver, recorder: recorder, logger: logger}
}

// DropoffLocation is the cell robots bring shelves to.
func (s *Station) DropoffLocation() domain.Point { return s.dropoff }

// SetOrderTracker installs the order-state sink.
func (s *Station) SetOrderTracker(o OrderTracker) { s.orders = o }

// Picked reports how many items the station has pulled so far.
func (s *Station) Picked() int { return s.picked }

// HandleTask pulls one item off the presented shelf and resumes the
// event's chain on the next tick.
func (s *Station) HandleTask(t *sim.Task, e *sim.Event) {
	if t.Type != sim.PickItemFromShelf {
		if s.logger != nil {
			s.logger.Printf("unroutable_task type=%s event=%s", t.Type, e.ID)
		}
		return
	}
	s.picked++
	if s.orders != nil {
		s.orders.MarkPicked(t.OrderID, s.driver.Clock())
	}
	if s.logger != nil {
		s.logger.Printf("tick=%d picked %s for order %s", s.driver.Clock(), t.SKU, t.OrderID)
	}
	s.recorder.Record(s.driver.Clock(), "order.picked", "order", t.OrderID, map[string]any{
		"sku":     t.SKU,
		"dropoff": s.dropoff,
	})
	s.driver.ScheduleAfter(e, sim.RetryDelay)
}

// Package fleet owns the robots and their lifecycle across a run.
package fleet

import (
	"fmt"

	"shelfline/internal/domain"
)

const (
	// FullCharge is the charge level robots are seeded with.
	FullCharge = 100
	// DefaultChargeThreshold is the level a charging robot must reach
	// before it returns to the available pool.
	DefaultChargeThreshold = 80
)

// Robot is one member of the fleet. It tracks its own position, carry flag
// and charge; lifecycle state lives in the Pool.
type Robot struct {
	id        int
	home      domain.Point
	location  domain.Point
	carrying  bool
	charge    int
	threshold int
	trips     int
}

// NewRobot seeds a robot at home with a full charge.
func NewRobot(id int, home domain.Point, threshold int) *Robot {
	if threshold <= 0 || threshold > FullCharge {
		threshold = DefaultChargeThreshold
	}
	return &Robot{
		id:        id,
		home:      home,
		location:  home,
		charge:    FullCharge,
		threshold: threshold,
	}
}

func (r *Robot) ID() int                { return r.id }
func (r *Robot) Home() domain.Point     { return r.home }
func (r *Robot) Location() domain.Point { return r.location }
func (r *Robot) Carrying() bool         { return r.carrying }
func (r *Robot) ChargeLevel() int       { return r.charge }
func (r *Robot) Trips() int             { return r.trips }

func (r *Robot) String() string {
	return fmt.Sprintf("robot-%d", r.id)
}

// MoveTo advances the robot one waypoint, draining one charge unit.
func (r *Robot) MoveTo(p domain.Point) {
	r.location = p
	if r.charge > 0 {
		r.charge--
	}
}

// RaiseShelf lifts the shelf at the robot's current cell.
func (r *Robot) RaiseShelf() { r.carrying = true }

// LowerShelf sets the carried shelf down at the robot's current cell.
func (r *Robot) LowerShelf() { r.carrying = false }

// AdvanceCharge adds one charge unit, capped at full.
func (r *Robot) AdvanceCharge() {
	if r.charge < FullCharge {
		r.charge++
	}
}

// NeedsMoreCharge reports whether the robot is still below its recharge
// threshold.
func (r *Robot) NeedsMoreCharge() bool {
	return r.charge < r.threshold
}

// CompleteTrip counts one finished retrieval.
func (r *Robot) CompleteTrip() { r.trips++ }

// Summary snapshots the robot for persistence.
func (r *Robot) Summary(state domain.RobotState) domain.RobotSummary {
	return domain.RobotSummary{
		RobotID:  r.id,
		State:    state,
		Location: r.location,
		Charge:   r.charge,
		Carrying: r.carrying,
		Trips:    r.trips,
	}
}

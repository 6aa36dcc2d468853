// Package sim is the discrete-event kernel: simulated time, the pending
// event queue, and the task chains events carry.
package sim

import (
	"shelfline/internal/domain"
	"shelfline/internal/fleet"
)

// TaskType discriminates the primitive and compound instructions a task
// chain is built from.
type TaskType int

const (
	// AvailableRobotRetrieveFromLocation asks the scheduler to allocate
	// any idle robot and expand the full retrieval chain for a shelf.
	AvailableRobotRetrieveFromLocation TaskType = iota
	// SpecificRobotPlotPath asks the scheduler to route the bound robot
	// to a destination and expand the waypoint legs.
	SpecificRobotPlotPath
	// SpecificRobotToLocation moves the bound robot one waypoint.
	SpecificRobotToLocation
	// EndItemRetrieval finishes an order's robot leg and hands the robot
	// to the charger.
	EndItemRetrieval
	// RobotCharge advances the bound robot's charge by one unit.
	RobotCharge
	// RaiseShelf lifts the shelf at the robot's current cell.
	RaiseShelf
	// LowerShelf sets the carried shelf down.
	LowerShelf
	// PickItemFromShelf tells the picker the item has arrived at the
	// drop-off.
	PickItemFromShelf
)

var taskNames = map[TaskType]string{
	AvailableRobotRetrieveFromLocation: "available_robot_retrieve_from_location",
	SpecificRobotPlotPath:              "specific_robot_plot_path",
	SpecificRobotToLocation:            "specific_robot_to_location",
	EndItemRetrieval:                   "end_item_retrieval",
	RobotCharge:                        "robot_charge",
	RaiseShelf:                         "raise_shelf",
	LowerShelf:                         "lower_shelf",
	PickItemFromShelf:                  "pick_item_from_shelf",
}

func (t TaskType) String() string {
	if s, ok := taskNames[t]; ok {
		return s
	}
	return "unknown"
}

// Task is one instruction in an event's chain. Location, Robot, SKU and
// OrderID are populated per type; unused fields stay zero.
type Task struct {
	Type     TaskType
	Location domain.Point
	Robot    *fleet.Robot
	SKU      string
	OrderID  string
}
